package relay

// Selection names the device the user picked. It is owned by the caller and
// passed to every Tick; the relay never changes it. The zero value selects
// the first listed device.
type Selection struct {
	index int
	id    string
	byID  bool

	// fallback is used when id is not listed. It is ignored when
	// hasFallback is false.
	fallback    int
	hasFallback bool
}

// SelectIndex selects the i-th listed device.
func SelectIndex(i int) Selection {
	return Selection{index: i}
}

// SelectID selects the device with the given id wherever it is listed.
func SelectID(id string) Selection {
	return Selection{id: id, byID: true}
}

// SelectIDOr selects the device with the given id, or the fallback-th listed
// device while that id is not listed. It suits a remembered device that may
// have gone away since.
func SelectIDOr(id string, fallback int) Selection {
	return Selection{id: id, byID: true, fallback: fallback, hasFallback: true}
}

// Index returns the selected index, or -1 for an id selection.
func (s Selection) Index() int {
	if s.byID {
		return -1
	}
	return s.index
}

// ID returns the selected id, or "" for an index selection.
func (s Selection) ID() string {
	return s.id
}

func (s Selection) resolve(ids []string) (int, bool) {
	if s.byID {
		for i, id := range ids {
			if id == s.id {
				return i, true
			}
		}
		if s.hasFallback {
			return SelectIndex(s.fallback).resolve(ids)
		}
		return -1, false
	}
	if s.index < 0 || s.index >= len(ids) {
		return -1, false
	}
	return s.index, true
}
