// Package blobref hands out short-lived in-process content references, the
// server-side counterpart of a browser object URL.
package blobref

import (
	"strings"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"github.com/google/uuid"

	"file-message/internal/models"
)

const routePrefix = "/blob/"

type Registry struct {
	baseURL string
	entries *ttlworker.Cache[string, *models.RawFile]
}

func NewRegistry(baseURL string, ttl time.Duration) *Registry {
	return &Registry{
		baseURL: strings.TrimRight(baseURL, "/"),
		entries: ttlworker.NewCache[string, *models.RawFile](ttl),
	}
}

// Mint registers file and returns a URL that serves its content until it is
// revoked or expires. The URL is unauthenticated, so ids are random UUIDs.
func (r *Registry) Mint(file *models.RawFile) string {
	id := uuid.NewString()
	r.entries.Set(id, file)
	return r.baseURL + routePrefix + id
}

func (r *Registry) Open(id string) (*models.RawFile, bool) {
	file := r.entries.Get(id)
	return file, file != nil
}

// Revoke accepts either a full reference or a bare id.
func (r *Registry) Revoke(ref string) {
	r.entries.Delete(IDFromRef(ref))
}

func IDFromRef(ref string) string {
	if idx := strings.LastIndex(ref, routePrefix); idx >= 0 {
		return ref[idx+len(routePrefix):]
	}
	return ref
}
