package assistant

import (
	"context"
	"encoding/json"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ProfileService reads and updates the signed-in account.
type ProfileService struct {
	client *Client
}

// Get fetches the current profile and refreshes the cached user snapshot in
// the session store.
func (s *ProfileService) Get(ctx context.Context) (*User, error) {
	return withSession(ctx, s.client.sessions, func(ctx context.Context) (*User, error) {
		respBody, err := s.client.get(ctx, "/api/profile")
		if err != nil {
			return nil, err
		}
		var user User
		if err = decode(respBody, &user); err != nil {
			return nil, err
		}
		s.cacheUser(&user)
		return &user, nil
	})
}

// CachedUser returns the last-known profile snapshot without network I/O,
// for optimistic display before Get completes. Nil when nothing is cached.
func (s *ProfileService) CachedUser() *User {
	raw := s.client.sessions.Current().User
	if len(raw) == 0 {
		return nil
	}
	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil
	}
	return &user
}

// Update changes mutable profile fields.
func (s *ProfileService) Update(ctx context.Context, fullname, phone string) (*User, error) {
	return withSession(ctx, s.client.sessions, func(ctx context.Context) (*User, error) {
		body, _ := sjson.SetBytes([]byte(`{}`), "fullname", fullname)
		body, _ = sjson.SetBytes(body, "phone", phone)
		respBody, err := s.client.put(ctx, "/api/profile", body)
		if err != nil {
			return nil, err
		}
		var user User
		if err = decode(respBody, &user); err != nil {
			return nil, err
		}
		s.cacheUser(&user)
		return &user, nil
	})
}

// Balance returns the current account balance.
func (s *ProfileService) Balance(ctx context.Context) (float64, error) {
	return withSession(ctx, s.client.sessions, func(ctx context.Context) (float64, error) {
		respBody, err := s.client.get(ctx, "/api/profile/balance")
		if err != nil {
			return 0, err
		}
		return gjson.GetBytes(respBody, "balance").Float(), nil
	})
}

func (s *ProfileService) cacheUser(user *User) {
	raw, err := json.Marshal(user)
	if err != nil {
		return
	}
	r := s.client.sessions.Current()
	if r.AccessToken == "" {
		return
	}
	r.User = raw
	// Best effort; the cache is cosmetic.
	if errSave := s.client.sessions.SaveRecord(r); errSave != nil {
		log.Debugf("failed to cache user snapshot: %v", errSave)
	}
}
