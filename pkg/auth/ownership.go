package auth

// CanMutate is the ownership rule applied to update/delete on resources that
// carry a creator/reporter/inspector reference. Admin always passes. A
// non-admin passes only when it owns the record. An empty owner (anonymous
// report) is mutable by admin only.
//
// The rule must be evaluated after loading the target resource and before
// any mutation; services never check it optimistically.
func CanMutate(identity *Identity, ownerID string) bool {
	if identity == nil {
		return false
	}
	if identity.IsAdmin() {
		return true
	}
	if ownerID == "" {
		return false
	}
	return identity.ID == ownerID
}
