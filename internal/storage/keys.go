package storage

import (
	"github.com/julianstephens/nextstep/internal/constants"
	"github.com/julianstephens/nextstep/internal/models"
)

// UserPrefix returns the namespace prefix holding every key of one identity.
func UserPrefix(id models.Identity) string {
	return constants.KeyNamespace + "/" + id.Segment() + "/"
}

// UserKey builds "@nextstep/<identity or local>/<field>".
func UserKey(id models.Identity, field string) string {
	return UserPrefix(id) + field
}
