package callog

// ExtenFilter blanks configured noise extension values out of exposed
// extension fields. The dialplan placeholder "s" is the canonical case: it is
// a real exten to the switching core but meaningless to a person reading a
// call record.
type ExtenFilter struct {
	hidden map[string]struct{}
}

// NewExtenFilter builds a filter hiding the given extens. With no arguments
// it hides only "s".
func NewExtenFilter(hidden ...string) *ExtenFilter {
	if len(hidden) == 0 {
		hidden = []string{"s"}
	}
	set := make(map[string]struct{}, len(hidden))
	for _, h := range hidden {
		if h != "" {
			set[h] = struct{}{}
		}
	}
	return &ExtenFilter{hidden: set}
}

// Filter returns the exten unchanged, or "" when it is configured as noise.
func (f *ExtenFilter) Filter(exten string) string {
	if f == nil {
		return exten
	}
	if _, ok := f.hidden[exten]; ok {
		return ""
	}
	return exten
}
