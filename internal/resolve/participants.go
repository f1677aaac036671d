package resolve

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"call-logd/internal/callog"
	"call-logd/internal/cel"
	"call-logd/internal/directory"
)

// ParticipantResolver reconciles the per-channel observations collected
// during interpretation with the CEL-derived participant mentions, against
// the external directory.
//
// One resolver serves exactly one call: its lookup caches must not leak
// between calls, so build a fresh one per draft. The caches guarantee at most
// one directory round-trip per distinct channel name and per distinct user.
type ParticipantResolver struct {
	dir directory.Client
	log *slog.Logger

	byChannel map[string]*directory.Participant
	byUser    map[string]*directory.Participant
}

func NewParticipantResolver(dir directory.Client, log *slog.Logger) *ParticipantResolver {
	if log == nil {
		log = slog.Default()
	}
	return &ParticipantResolver{
		dir:       dir,
		log:       log,
		byChannel: make(map[string]*directory.Participant),
		byUser:    make(map[string]*directory.Participant),
	}
}

// Resolve fills call.Participants. Directory failures degrade to "not found"
// and never abort the call.
func (r *ParticipantResolver) Resolve(ctx context.Context, call *callog.RawCallLog) {
	channels := collapseByLineIdentity(call.RawParticipantChannels())

	var resolved []callog.Participant
	for _, channame := range channels {
		raw := call.RawParticipants[channame]
		found := r.lookupChannel(ctx, channame)
		if found == nil {
			continue
		}
		raw.TenantUUID = found.TenantUUID
		raw.MainExtension = found.MainExtension
		r.byUser[found.UUID] = found

		resolved = append(resolved, callog.Participant{
			UUID:       uuid.NewString(),
			UserUUID:   found.UUID,
			TenantUUID: found.TenantUUID,
			LineID:     found.LineID,
			Tags:       found.Tags,
			Role:       raw.Role,
			Answered:   raw.Answered,
		})
	}

	resolved = r.reconcileMentions(ctx, call, resolved)
	call.Participants = resolved
}

// reconcileMentions merges CEL-derived mentions into the channel-derived
// participants, synthesizing an unreached participant for every user the
// channels never produced.
func (r *ParticipantResolver) reconcileMentions(ctx context.Context, call *callog.RawCallLog, resolved []callog.Participant) []callog.Participant {
	for _, userUUID := range mentionedUsers(call.ParticipantsInfo) {
		mentions := mentionsOf(call.ParticipantsInfo, userUUID)
		matches := indexesOf(resolved, userUUID)

		if len(matches) == 0 {
			resolved = append(resolved, r.synthesize(ctx, userUUID, mentions))
			continue
		}
		if len(matches) != len(mentions) {
			// Best effort only: an uneven pairing (e.g. one user on three
			// channels but two mentions) has no defined merge.
			r.log.Debug("uneven participant reconciliation, leaving as-is",
				"user_uuid", userUUID, "channels", len(matches), "mentions", len(mentions))
			continue
		}
		for i, idx := range matches {
			m := mentions[i]
			if m.Answered != nil && !resolved[idx].Answered {
				resolved[idx].Answered = *m.Answered
			}
			if m.Requested {
				resolved[idx].Requested = true
			}
		}
	}
	return resolved
}

func (r *ParticipantResolver) synthesize(ctx context.Context, userUUID string, mentions []callog.ParticipantInfo) callog.Participant {
	out := callog.Participant{
		UUID:     uuid.NewString(),
		UserUUID: userUUID,
		Answered: false,
	}
	for _, m := range mentions {
		out.Role = m.Role
		if m.Requested {
			out.Requested = true
		}
	}
	if found := r.lookupUser(ctx, userUUID); found != nil {
		out.TenantUUID = found.TenantUUID
		out.LineID = found.LineID
		out.Tags = found.Tags
	}
	return out
}

func (r *ParticipantResolver) lookupChannel(ctx context.Context, channame string) *directory.Participant {
	if cached, ok := r.byChannel[channame]; ok {
		return cached
	}
	found, err := r.dir.FindParticipantByChannel(ctx, channame)
	if err != nil {
		r.log.Info("directory lookup failed, treating channel as unknown",
			"channel", channame, "err", err)
		found = nil
	}
	r.byChannel[channame] = found
	return found
}

func (r *ParticipantResolver) lookupUser(ctx context.Context, userUUID string) *directory.Participant {
	if cached, ok := r.byUser[userUUID]; ok {
		return cached
	}
	found, err := r.dir.FindParticipantByUser(ctx, userUUID)
	if err != nil {
		r.log.Info("directory lookup failed, treating user as unknown",
			"user_uuid", userUUID, "err", err)
		found = nil
	}
	r.byUser[userUUID] = found
	return found
}

// collapseByLineIdentity drops duplicate channel instances of one physical
// line (mid-call renegotiation shows the same interface twice); the last-seen
// channel wins, the line keeps its first-seen position.
func collapseByLineIdentity(channels []string) []string {
	lastByIdentity := make(map[string]string, len(channels))
	var order []string
	for _, channame := range channels {
		identity := cel.LineIdentity(channame)
		if _, ok := lastByIdentity[identity]; !ok {
			order = append(order, identity)
		}
		lastByIdentity[identity] = channame
	}
	out := make([]string, 0, len(order))
	for _, identity := range order {
		out = append(out, lastByIdentity[identity])
	}
	return out
}

func mentionedUsers(infos []callog.ParticipantInfo) []string {
	seen := make(map[string]struct{}, len(infos))
	var out []string
	for _, m := range infos {
		if m.UserUUID == "" {
			continue
		}
		if _, ok := seen[m.UserUUID]; ok {
			continue
		}
		seen[m.UserUUID] = struct{}{}
		out = append(out, m.UserUUID)
	}
	return out
}

func mentionsOf(infos []callog.ParticipantInfo, userUUID string) []callog.ParticipantInfo {
	var out []callog.ParticipantInfo
	for _, m := range infos {
		if m.UserUUID == userUUID {
			out = append(out, m)
		}
	}
	return out
}

func indexesOf(participants []callog.Participant, userUUID string) []int {
	var out []int
	for i := range participants {
		if participants[i].UserUUID == userUUID {
			out = append(out, i)
		}
	}
	return out
}
