package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/choiseongjun/chat-with-stream/internal/domain"
	"github.com/choiseongjun/chat-with-stream/internal/repository"
)

// fakeStore is an in-memory repository.Store. Transaction is a plain
// pass-through; rollback behavior is not simulated.
type fakeStore struct {
	mu          sync.Mutex
	users       map[int64]*domain.User
	rooms       map[int64]*domain.ChatRoom
	memberships []*domain.RoomMembership
	messages    []*domain.Message
	nextID      int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[int64]*domain.User),
		rooms: make(map[int64]*domain.ChatRoom),
	}
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) addUser(username string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := &domain.User{
		ID:           s.id(),
		Username:     username,
		Email:        username + "@example.com",
		Status:       domain.StatusOnline,
		LastActiveAt: time.Now(),
		CreatedAt:    time.Now(),
	}
	s.users[user.ID] = user
	return user
}

func (s *fakeStore) Users() repository.UserRepository             { return (*fakeUserRepo)(s) }
func (s *fakeStore) Rooms() repository.RoomRepository             { return (*fakeRoomRepo)(s) }
func (s *fakeStore) Memberships() repository.MembershipRepository { return (*fakeMembershipRepo)(s) }
func (s *fakeStore) Messages() repository.MessageRepository       { return (*fakeMessageRepo)(s) }

func (s *fakeStore) Transaction(_ context.Context, fn func(repository.Store) error) error {
	return fn(s)
}

type fakeUserRepo fakeStore

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = s.id()
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) ListByStatus(_ context.Context, status domain.UserStatus) ([]*domain.User, error) {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var users []*domain.User
	for _, user := range s.users {
		if user.Status == status {
			copied := *user
			users = append(users, &copied)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *fakeUserRepo) UpdateStatus(_ context.Context, id int64, status domain.UserStatus, lastActiveAt time.Time) error {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Status = status
	user.LastActiveAt = lastActiveAt
	return nil
}

type fakeRoomRepo fakeStore

func (r *fakeRoomRepo) Create(_ context.Context, room *domain.ChatRoom) error {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	room.ID = s.id()
	copied := *room
	s.rooms[room.ID] = &copied
	return nil
}

func (r *fakeRoomRepo) GetByID(_ context.Context, id int64) (*domain.ChatRoom, error) {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *room
	return &copied, nil
}

func (r *fakeRoomRepo) ListPublic(_ context.Context) ([]*domain.ChatRoom, error) {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var rooms []*domain.ChatRoom
	for _, room := range s.rooms {
		if !room.IsPrivate {
			copied := *room
			rooms = append(rooms, &copied)
		}
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})
	return rooms, nil
}

func (r *fakeRoomRepo) ListByUser(_ context.Context, userID int64) ([]*domain.ChatRoom, error) {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var rooms []*domain.ChatRoom
	for _, m := range s.memberships {
		if m.UserID == userID {
			if room, ok := s.rooms[m.RoomID]; ok {
				copied := *room
				rooms = append(rooms, &copied)
			}
		}
	}
	return rooms, nil
}

func (r *fakeRoomRepo) Delete(_ context.Context, id int64) error {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.rooms, id)
	return nil
}

type fakeMembershipRepo fakeStore

func (r *fakeMembershipRepo) Create(_ context.Context, m *domain.RoomMembership) error {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.id()
	copied := *m
	s.memberships = append(s.memberships, &copied)
	return nil
}

func (r *fakeMembershipRepo) Get(_ context.Context, roomID, userID int64) (*domain.RoomMembership, error) {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.memberships {
		if m.RoomID == roomID && m.UserID == userID {
			copied := *m
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeMembershipRepo) Exists(ctx context.Context, roomID, userID int64) (bool, error) {
	_, err := r.Get(ctx, roomID, userID)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (r *fakeMembershipRepo) ListByRoom(_ context.Context, roomID int64) ([]*domain.RoomMembership, error) {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var members []*domain.RoomMembership
	for _, m := range s.memberships {
		if m.RoomID == roomID {
			copied := *m
			members = append(members, &copied)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].UserID < members[j].UserID
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	return members, nil
}

func (r *fakeMembershipRepo) CountByRoom(ctx context.Context, roomID int64) (int, error) {
	members, _ := r.ListByRoom(ctx, roomID)
	return len(members), nil
}

func (r *fakeMembershipRepo) Delete(_ context.Context, roomID, userID int64) error {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.memberships {
		if m.RoomID == roomID && m.UserID == userID {
			s.memberships = append(s.memberships[:i], s.memberships[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeMembershipRepo) DeleteByRoom(_ context.Context, roomID int64) error {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.memberships[:0]
	for _, m := range s.memberships {
		if m.RoomID != roomID {
			kept = append(kept, m)
		}
	}
	s.memberships = kept
	return nil
}

func (r *fakeMembershipRepo) UpdateRole(_ context.Context, id int64, role domain.MemberRole) error {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.memberships {
		if m.ID == id {
			m.Role = role
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeMembershipRepo) UpdateLastReadAt(_ context.Context, roomID, userID int64, at time.Time) error {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.memberships {
		if m.RoomID == roomID && m.UserID == userID {
			m.LastReadAt = at
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeMessageRepo fakeStore

func (r *fakeMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	msg.ID = s.id()
	copied := *msg
	s.messages = append(s.messages, &copied)
	return nil
}

func (r *fakeMessageRepo) ListByRoom(_ context.Context, roomID int64, limit int) ([]*domain.Message, error) {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var messages []*domain.Message
	for i := len(s.messages) - 1; i >= 0 && len(messages) < limit; i-- {
		if s.messages[i].RoomID == roomID {
			copied := *s.messages[i]
			messages = append(messages, &copied)
		}
	}
	return messages, nil
}

func (r *fakeMessageRepo) ListBefore(_ context.Context, roomID, beforeID int64, limit int) ([]*domain.Message, error) {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var messages []*domain.Message
	for i := len(s.messages) - 1; i >= 0 && len(messages) < limit; i-- {
		msg := s.messages[i]
		if msg.RoomID == roomID && msg.ID < beforeID {
			copied := *msg
			messages = append(messages, &copied)
		}
	}
	return messages, nil
}

func (r *fakeMessageRepo) CountSince(_ context.Context, roomID int64, since time.Time) (int, error) {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, msg := range s.messages {
		if msg.RoomID == roomID && msg.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeMessageRepo) DeleteByRoom(_ context.Context, roomID int64) error {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.messages[:0]
	for _, msg := range s.messages {
		if msg.RoomID != roomID {
			kept = append(kept, msg)
		}
	}
	s.messages = kept
	return nil
}

// fakeHistory is an in-memory HistoryCache with the same bound and
// newest-first ordering as the Redis one.
type fakeHistory struct {
	mu        sync.Mutex
	lists     map[int64][]*domain.BroadcastEnvelope
	appendErr error
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{lists: make(map[int64][]*domain.BroadcastEnvelope)}
}

func (h *fakeHistory) Append(_ context.Context, env *domain.BroadcastEnvelope) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.appendErr != nil {
		return h.appendErr
	}
	list := append([]*domain.BroadcastEnvelope{env}, h.lists[env.RoomID]...)
	if len(list) > 100 {
		list = list[:100]
	}
	h.lists[env.RoomID] = list
	return nil
}

func (h *fakeHistory) Recent(_ context.Context, roomID int64, limit int) ([]*domain.BroadcastEnvelope, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.lists[roomID]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	out := make([]*domain.BroadcastEnvelope, len(list))
	copy(out, list)
	return out, nil
}

func (h *fakeHistory) Drop(_ context.Context, roomID int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.lists, roomID)
	return nil
}

// fakePresence is an in-memory PresenceCache without TTL expiry.
type fakePresence struct {
	mu      sync.Mutex
	records map[int64]*domain.PresenceRecord
}

func newFakePresence() *fakePresence {
	return &fakePresence{records: make(map[int64]*domain.PresenceRecord)}
}

func (p *fakePresence) Set(_ context.Context, record *domain.PresenceRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	copied := *record
	p.records[record.UserID] = &copied
	return nil
}

func (p *fakePresence) Get(_ context.Context, userID int64) (*domain.PresenceRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	record, ok := p.records[userID]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (p *fakePresence) GetMany(_ context.Context, userIDs []int64) ([]*domain.PresenceRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var records []*domain.PresenceRecord
	for _, id := range userIDs {
		if record, ok := p.records[id]; ok {
			copied := *record
			records = append(records, &copied)
		}
	}
	return records, nil
}

// fakeFanout records dispatched envelopes.
type fakeFanout struct {
	mu         sync.Mutex
	dispatched []*domain.BroadcastEnvelope
}

func (f *fakeFanout) Publish(_ context.Context, env *domain.BroadcastEnvelope) error {
	f.Dispatch(env)
	return nil
}

func (f *fakeFanout) Dispatch(env *domain.BroadcastEnvelope) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatched = append(f.dispatched, env)
}

func (f *fakeFanout) Wait() {}

func (f *fakeFanout) envelopes() []*domain.BroadcastEnvelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.BroadcastEnvelope, len(f.dispatched))
	copy(out, f.dispatched)
	return out
}
