package store

// IsSelected reports whether a record is selected. Under the select-all
// sentinel every matching record is selected.
func (s *Store) IsSelected(recordId string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.allSelected {
		return true
	}
	return s.selected[recordId]
}

// AllSelected reports whether the select-all sentinel is active, meaning
// the selection covers every record matching the current query on the
// server, not just the loaded page.
func (s *Store) AllSelected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allSelected
}

// SelectedCount returns the number of selected records. Under the sentinel
// it is the server-side total.
func (s *Store) SelectedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.allSelected {
		return s.totalRecords
	}
	return len(s.selected)
}

// SelectedIds returns the explicitly selected ids. Under the sentinel only
// loaded records can be enumerated; the full selection lives server-side
// and is addressed by query, never by id list.
func (s *Store) SelectedIds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.allSelected {
		ids := make([]string, 0, len(s.records))
		for _, record := range s.records {
			ids = append(ids, record.Id)
		}
		return ids
	}

	ids := make([]string, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	return ids
}

// SelectAll activates the sentinel covering all records matching the
// current query, including pages not loaded, and clears the explicit set.
func (s *Store) SelectAll() {
	s.mu.Lock()
	s.allSelected = true
	s.selected = map[string]bool{}
	s.mu.Unlock()
	s.notify()
}

// ClearSelection drops the sentinel and every explicit selection.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	s.allSelected = false
	s.selected = map[string]bool{}
	s.mu.Unlock()
	s.notify()
}

// ToggleSelect flips one record's selection. Toggling while the sentinel is
// active drops it and materializes the loaded page minus the toggled id as
// an explicit selection; toggling in explicit mode never re-activates the
// sentinel.
func (s *Store) ToggleSelect(recordId string) {
	s.mu.Lock()

	if s.allSelected {
		s.allSelected = false
		s.selected = make(map[string]bool, len(s.records))
		for _, record := range s.records {
			if record.Id != recordId {
				s.selected[record.Id] = true
			}
		}
		s.mu.Unlock()
		s.notify()
		return
	}

	if s.selected[recordId] {
		delete(s.selected, recordId)
	} else {
		s.selected[recordId] = true
	}
	s.mu.Unlock()
	s.notify()
}
