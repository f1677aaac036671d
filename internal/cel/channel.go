package cel

import "strings"

// LocalChannelPrefix marks dialplan-only channel pairs used for call forking
// and shared lines; they never map to a real device.
const LocalChannelPrefix = "Local/"

// IsLocalChannel reports whether a channel name uses the reserved local prefix.
func IsLocalChannel(channame string) bool {
	return strings.HasPrefix(channame, LocalChannelPrefix)
}

// LineIdentity reduces a channel instance name to the protocol interface it
// was created from, e.g. "PJSIP/abcd-00000012" -> "pjsip/abcd". For local
// channels the instance suffix starts at the pair marker instead:
// "Local/102@default-00000042;1" -> "local/102@default-00000042".
func LineIdentity(channame string) string {
	end := strings.LastIndex(channame, "-")
	if IsLocalChannel(channame) {
		end = strings.LastIndex(channame, ";")
	}
	if end < 0 {
		return strings.ToLower(channame)
	}
	return strings.ToLower(channame[:end])
}
