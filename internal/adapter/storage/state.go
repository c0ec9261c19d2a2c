package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"

	"github.com/niksmo/shopwave/internal/core/domain"
	"github.com/niksmo/shopwave/internal/core/port"
	"github.com/spf13/afero"
)

var _ port.StateStore = (*FileStateStore)(nil)

var sessionIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

type (
	stateDocument struct {
		Cart     []cartEntry `json:"sw_cart"`
		Wishlist []int64     `json:"sw_wishlist"`
		Token    *string     `json:"sw_token"`
		User     *userRecord `json:"sw_user"`
	}

	cartEntry struct {
		ProductID int64 `json:"id"`
		Qty       int   `json:"qty"`
	}

	userRecord struct {
		ID        int64  `json:"userId"`
		Email     string `json:"email"`
		FirstName string `json:"firstName"`
		Role      string `json:"role,omitempty"`
	}
)

// FileStateStore keeps one JSON document per session under dir.
// Writes go to a temporary file that is renamed over the old one.
type FileStateStore struct {
	fs  afero.Fs
	dir string
}

func NewFileStateStore(fsys afero.Fs, dir string) (*FileStateStore, error) {
	const op = "NewFileStateStore"

	if err := fsys.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &FileStateStore{fs: fsys, dir: dir}, nil
}

// LoadState returns an empty state for a session never saved before.
func (s *FileStateStore) LoadState(
	ctx context.Context, sessionID string,
) (domain.AppState, error) {
	const op = "FileStateStore.LoadState"

	path, err := s.path(ctx, sessionID)
	if err != nil {
		return domain.AppState{}, fmt.Errorf("%s: %w", op, err)
	}

	b, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.AppState{}, nil
		}
		return domain.AppState{}, fmt.Errorf("%s: %w", op, err)
	}

	var doc stateDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return domain.AppState{}, fmt.Errorf("%s: corrupted state: %w", op, err)
	}
	return doc.toDomain(), nil
}

func (s *FileStateStore) SaveState(
	ctx context.Context, sessionID string, state domain.AppState,
) error {
	const op = "FileStateStore.SaveState"

	path, err := s.path(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	b, err := json.Marshal(fromDomain(state))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, b, 0o600); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *FileStateStore) path(ctx context.Context, sessionID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !sessionIDRe.MatchString(sessionID) {
		return "", domain.ErrInvalidSession
	}
	return filepath.Join(s.dir, sessionID+".json"), nil
}

func (d stateDocument) toDomain() (s domain.AppState) {
	for _, e := range d.Cart {
		s.Cart = append(s.Cart, domain.CartEntry{ProductID: e.ProductID, Qty: e.Qty})
	}
	s.Wishlist = d.Wishlist
	if d.Token != nil {
		s.AuthToken = *d.Token
	}
	if d.User != nil {
		s.User = &domain.User{
			ID:        d.User.ID,
			Email:     d.User.Email,
			FirstName: d.User.FirstName,
			Role:      d.User.Role,
		}
	}
	return s
}

func fromDomain(s domain.AppState) stateDocument {
	d := stateDocument{
		Cart:     make([]cartEntry, 0, len(s.Cart)),
		Wishlist: s.Wishlist,
	}
	if d.Wishlist == nil {
		d.Wishlist = []int64{}
	}
	for _, e := range s.Cart {
		d.Cart = append(d.Cart, cartEntry{ProductID: e.ProductID, Qty: e.Qty})
	}
	if s.AuthToken != "" {
		d.Token = &s.AuthToken
	}
	if s.User != nil {
		d.User = &userRecord{
			ID:        s.User.ID,
			Email:     s.User.Email,
			FirstName: s.User.FirstName,
			Role:      s.User.Role,
		}
	}
	return d
}
