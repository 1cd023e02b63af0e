package convert

// Clear deletes the session's files and removes the record. Idempotent:
// clearing an unknown or already-cleared id succeeds.
func (s *Service) Clear(id string) {
	s.store.Delete(id)
}
