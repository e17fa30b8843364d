package schedule

// FindRemote returns the first event carrying recordID, or nil.
func FindRemote(events []*RemoteEvent, recordID string) *RemoteEvent {
	for _, ev := range events {
		if id, ok := ev.RecordID(); ok && id == recordID {
			return ev
		}
	}
	return nil
}

// FindAllRemote returns every event carrying recordID. Occurrences of a
// recurring local item share one record id.
func FindAllRemote(events []*RemoteEvent, recordID string) []*RemoteEvent {
	var out []*RemoteEvent
	for _, ev := range events {
		if id, ok := ev.RecordID(); ok && id == recordID {
			out = append(out, ev)
		}
	}
	return out
}

// Untracked returns the events that carry no record id.
func Untracked(events []*RemoteEvent) []*RemoteEvent {
	var out []*RemoteEvent
	for _, ev := range events {
		if !ev.Tracked() {
			out = append(out, ev)
		}
	}
	return out
}
