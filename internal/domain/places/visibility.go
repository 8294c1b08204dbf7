package places

import "github.com/Togather-Foundation/places/internal/auth"

// ShowDeleted decides whether tombstoned rows are visible. Only a superuser
// who explicitly asked gets them; everyone else silently sees live rows.
func ShowDeleted(requested bool, role auth.Role) bool {
	return requested && role == auth.RoleSuperuser
}

// Visible reports whether a row with the given deleted flag passes the
// filter deleted_flg IN (false, showDeleted).
func Visible(deletedFlg, showDeleted bool) bool {
	return !deletedFlg || showDeleted
}
