package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/skillacademy/events-service/internal/integrations/skills"
	"github.com/skillacademy/events-service/internal/model"
	"github.com/skillacademy/events-service/internal/repository"
)

// In-memory реализации контрактов для тестов

type fakeSlotStore struct {
	mu    sync.Mutex
	slots map[string]*model.Slot
}

func newFakeSlotStore() *fakeSlotStore {
	return &fakeSlotStore{slots: make(map[string]*model.Slot)}
}

func (f *fakeSlotStore) Create(_ context.Context, slot *model.Slot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *slot
	f.slots[slot.ID] = &cp
	return nil
}

func (f *fakeSlotStore) GetByID(_ context.Context, id string) (*model.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot, ok := f.slots[id]
	if !ok {
		return nil, nil
	}
	cp := *slot
	return &cp, nil
}

func (f *fakeSlotStore) GetByOwner(_ context.Context, userID string) ([]*model.Slot, error) {
	return f.filter(func(s *model.Slot) bool { return s.UserID == userID }), nil
}

func (f *fakeSlotStore) GetForUser(_ context.Context, userID string) ([]*model.Slot, error) {
	return f.filter(func(s *model.Slot) bool {
		return s.UserID == userID || (s.BookedBy != nil && *s.BookedBy == userID)
	}), nil
}

func (f *fakeSlotStore) GetFreeByOwners(_ context.Context, ownerIDs []string, from, to time.Time) ([]*model.Slot, error) {
	owners := make(map[string]struct{}, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = struct{}{}
	}
	return f.filter(func(s *model.Slot) bool {
		_, ok := owners[s.UserID]
		return ok && s.BookedBy == nil && !s.Start.Before(from) && s.Start.Before(to)
	}), nil
}

func (f *fakeSlotStore) GetExpired(_ context.Context, before time.Time) ([]*model.Slot, error) {
	return f.filter(func(s *model.Slot) bool { return s.End.Before(before) }), nil
}

func (f *fakeSlotStore) ClaimAndBook(_ context.Context, slot *model.Slot) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.slots[slot.ID]
	if !ok || existing.BookedBy != nil {
		return false, nil
	}
	cp := *slot
	f.slots[slot.ID] = &cp
	return true, nil
}

func (f *fakeSlotStore) Update(_ context.Context, slot *model.Slot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *slot
	f.slots[slot.ID] = &cp
	return nil
}

func (f *fakeSlotStore) Delete(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.slots[id]
	delete(f.slots, id)
	return ok, nil
}

func (f *fakeSlotStore) DeleteUnbookedByWeeklySlot(_ context.Context, weeklySlotID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, s := range f.slots {
		if s.WeeklySlotID != nil && *s.WeeklySlotID == weeklySlotID && s.BookedBy == nil {
			delete(f.slots, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeSlotStore) DetachBookedByWeeklySlot(_ context.Context, weeklySlotID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.slots {
		if s.WeeklySlotID != nil && *s.WeeklySlotID == weeklySlotID && s.BookedBy != nil {
			s.WeeklySlotID = nil
			n++
		}
	}
	return n, nil
}

func (f *fakeSlotStore) filter(keep func(*model.Slot) bool) []*model.Slot {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Slot
	for _, s := range f.slots {
		if keep(s) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

type fakeWeeklySlotStore struct {
	rules map[string]*model.WeeklySlot
}

func newFakeWeeklySlotStore() *fakeWeeklySlotStore {
	return &fakeWeeklySlotStore{rules: make(map[string]*model.WeeklySlot)}
}

func (f *fakeWeeklySlotStore) Create(_ context.Context, ws *model.WeeklySlot) error {
	cp := *ws
	f.rules[ws.ID] = &cp
	return nil
}

func (f *fakeWeeklySlotStore) GetByID(_ context.Context, id string) (*model.WeeklySlot, error) {
	ws, ok := f.rules[id]
	if !ok {
		return nil, nil
	}
	cp := *ws
	return &cp, nil
}

func (f *fakeWeeklySlotStore) GetByOwner(_ context.Context, userID string) ([]*model.WeeklySlot, error) {
	var out []*model.WeeklySlot
	for _, ws := range f.rules {
		if ws.UserID == userID {
			cp := *ws
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeWeeklySlotStore) GetAll(_ context.Context) ([]*model.WeeklySlot, error) {
	var out []*model.WeeklySlot
	for _, ws := range f.rules {
		cp := *ws
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeWeeklySlotStore) UpdateLastSlot(_ context.Context, id string, lastSlot time.Time) error {
	if ws, ok := f.rules[id]; ok && lastSlot.After(ws.LastSlot) {
		ws.LastSlot = lastSlot
	}
	return nil
}

func (f *fakeWeeklySlotStore) Delete(_ context.Context, id string) (bool, error) {
	_, ok := f.rules[id]
	delete(f.rules, id)
	return ok, nil
}

type fakeEmergencyStore struct {
	marks map[string]bool
}

func newFakeEmergencyStore() *fakeEmergencyStore {
	return &fakeEmergencyStore{marks: make(map[string]bool)}
}

func (f *fakeEmergencyStore) Exists(_ context.Context, userID string) (bool, error) {
	return f.marks[userID], nil
}

func (f *fakeEmergencyStore) Create(_ context.Context, userID string) error {
	f.marks[userID] = true
	return nil
}

func (f *fakeEmergencyStore) Delete(_ context.Context, userID string) (bool, error) {
	existed := f.marks[userID]
	delete(f.marks, userID)
	return existed, nil
}

type fakeCoachingStore struct {
	offerings map[string]*model.Coaching // ключ user|skill
}

func newFakeCoachingStore() *fakeCoachingStore {
	return &fakeCoachingStore{offerings: make(map[string]*model.Coaching)}
}

func (f *fakeCoachingStore) Upsert(_ context.Context, c *model.Coaching) error {
	cp := *c
	f.offerings[c.UserID+"|"+c.SkillID] = &cp
	return nil
}

func (f *fakeCoachingStore) Get(_ context.Context, userID, skillID string) (*model.Coaching, error) {
	c, ok := f.offerings[userID+"|"+skillID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCoachingStore) GetByUser(_ context.Context, userID string) ([]*model.Coaching, error) {
	var out []*model.Coaching
	for _, c := range f.offerings {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeCoachingStore) Delete(_ context.Context, userID, skillID string) (bool, error) {
	key := userID + "|" + skillID
	_, ok := f.offerings[key]
	delete(f.offerings, key)
	return ok, nil
}

type fakeExamStore struct {
	offerings map[string]*model.Exam
	booked    map[string]*model.BookedExam // ключ user|skill|examiner
}

func newFakeExamStore() *fakeExamStore {
	return &fakeExamStore{
		offerings: make(map[string]*model.Exam),
		booked:    make(map[string]*model.BookedExam),
	}
}

func (f *fakeExamStore) Upsert(_ context.Context, e *model.Exam) error {
	cp := *e
	f.offerings[e.UserID+"|"+e.SkillID] = &cp
	return nil
}

func (f *fakeExamStore) Get(_ context.Context, userID, skillID string) (*model.Exam, error) {
	e, ok := f.offerings[userID+"|"+skillID]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (f *fakeExamStore) GetByUser(_ context.Context, userID string) ([]*model.Exam, error) {
	var out []*model.Exam
	for _, e := range f.offerings {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeExamStore) Delete(_ context.Context, userID, skillID string) (bool, error) {
	key := userID + "|" + skillID
	_, ok := f.offerings[key]
	delete(f.offerings, key)
	return ok, nil
}

func (f *fakeExamStore) CreateBooked(_ context.Context, b *model.BookedExam) error {
	cp := *b
	f.booked[b.UserID+"|"+b.SkillID+"|"+b.ExaminerID] = &cp
	return nil
}

func (f *fakeExamStore) ExistsBooked(_ context.Context, userID, skillID string) (bool, error) {
	for _, b := range f.booked {
		if b.UserID == userID && b.SkillID == skillID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeExamStore) GetBooked(_ context.Context, userID, skillID, examinerID string) (*model.BookedExam, error) {
	b, ok := f.booked[userID+"|"+skillID+"|"+examinerID]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (f *fakeExamStore) GetPendingByExaminer(_ context.Context, examinerID string) ([]*model.BookedExam, error) {
	var out []*model.BookedExam
	for _, b := range f.booked {
		if b.ExaminerID == examinerID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeExamStore) DeleteBooked(_ context.Context, userID, skillID, examinerID string) (bool, error) {
	key := userID + "|" + skillID + "|" + examinerID
	_, ok := f.booked[key]
	delete(f.booked, key)
	return ok, nil
}

func (f *fakeExamStore) DeleteBookedBySlot(_ context.Context, slotID string) error {
	for key, b := range f.booked {
		if b.SlotID == slotID {
			delete(f.booked, key)
		}
	}
	return nil
}

type fakeWebinarStore struct {
	webinars     map[string]*model.Webinar
	participants map[string][]*model.WebinarParticipant
}

func newFakeWebinarStore() *fakeWebinarStore {
	return &fakeWebinarStore{
		webinars:     make(map[string]*model.Webinar),
		participants: make(map[string][]*model.WebinarParticipant),
	}
}

func (f *fakeWebinarStore) Create(_ context.Context, w *model.Webinar) error {
	cp := *w
	cp.Participants = nil
	f.webinars[w.ID] = &cp
	return nil
}

func (f *fakeWebinarStore) GetByID(_ context.Context, id string) (*model.Webinar, error) {
	w, ok := f.webinars[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	cp.Participants = append([]*model.WebinarParticipant(nil), f.participants[id]...)
	return &cp, nil
}

func (f *fakeWebinarStore) List(_ context.Context, viewerID string, filter repository.WebinarFilter) ([]*model.Webinar, error) {
	var out []*model.Webinar
	for id, w := range f.webinars {
		if filter.SkillID != "" && w.SkillID != filter.SkillID {
			continue
		}
		if filter.Creator != "" && w.Creator != filter.Creator {
			continue
		}
		if filter.StartFrom != nil && w.Start.Before(*filter.StartFrom) {
			continue
		}
		if filter.StartTo != nil && !w.Start.Before(*filter.StartTo) {
			continue
		}
		cp := *w
		for _, p := range f.participants[id] {
			if p.UserID == viewerID {
				cp.Registered = true
			}
		}
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeWebinarStore) GetByUser(_ context.Context, userID string) ([]*model.Webinar, error) {
	var out []*model.Webinar
	for id, w := range f.webinars {
		mine := w.Creator == userID
		for _, p := range f.participants[id] {
			if p.UserID == userID {
				mine = true
			}
		}
		if mine {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeWebinarStore) GetExpired(_ context.Context, before time.Time) ([]*model.Webinar, error) {
	var out []*model.Webinar
	for id, w := range f.webinars {
		if w.End.Before(before) {
			cp := *w
			cp.Participants = append([]*model.WebinarParticipant(nil), f.participants[id]...)
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeWebinarStore) Update(_ context.Context, w *model.Webinar) error {
	cp := *w
	cp.Participants = nil
	f.webinars[w.ID] = &cp
	return nil
}

func (f *fakeWebinarStore) Delete(_ context.Context, id string) (bool, error) {
	_, ok := f.webinars[id]
	delete(f.webinars, id)
	delete(f.participants, id)
	return ok, nil
}

func (f *fakeWebinarStore) AddParticipant(_ context.Context, p *model.WebinarParticipant) (bool, error) {
	for _, existing := range f.participants[p.WebinarID] {
		if existing.UserID == p.UserID {
			return false, nil
		}
	}
	cp := *p
	f.participants[p.WebinarID] = append(f.participants[p.WebinarID], &cp)
	return true, nil
}

func (f *fakeWebinarStore) RemoveParticipant(_ context.Context, webinarID, userID string) (bool, error) {
	list := f.participants[webinarID]
	for i, p := range list {
		if p.UserID == userID {
			f.participants[webinarID] = append(list[:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type walletEntry struct {
	userID      string
	amount      int64
	description string
	creditNote  bool
}

type fakeWallet struct {
	mu       sync.Mutex
	balances map[string]int64
	entries  []walletEntry
	failAll  bool
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{balances: make(map[string]int64)}
}

func (f *fakeWallet) AddCoins(_ context.Context, userID string, amount int64, description string, creditNote bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errors.New("wallet down")
	}
	f.balances[userID] += amount
	f.entries = append(f.entries, walletEntry{userID: userID, amount: amount, description: description, creditNote: creditNote})
	return nil
}

func (f *fakeWallet) SpendCoins(_ context.Context, userID string, amount int64, description string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return false, errors.New("wallet down")
	}
	if f.balances[userID] < amount {
		return false, nil
	}
	f.balances[userID] -= amount
	f.entries = append(f.entries, walletEntry{userID: userID, amount: -amount, description: description})
	return true, nil
}

func (f *fakeWallet) balance(userID string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID]
}

type fakeSkills struct {
	completed map[string][]string
	deps      map[string][]string
	xp        map[string]int64
}

func newFakeSkills() *fakeSkills {
	return &fakeSkills{
		completed: make(map[string][]string),
		deps:      make(map[string][]string),
		xp:        make(map[string]int64),
	}
}

func (f *fakeSkills) GetCompletedSkills(_ context.Context, userID string) ([]string, error) {
	return f.completed[userID], nil
}

func (f *fakeSkills) GetSkillDependencies(_ context.Context, skillID string) ([]string, error) {
	deps, ok := f.deps[skillID]
	if !ok {
		return nil, skills.ErrSkillNotFound
	}
	return deps, nil
}

func (f *fakeSkills) GetLecturers(_ context.Context, skillIDs []string) ([]string, error) {
	var out []string
	for userID, completed := range f.completed {
		if skills.HasAll(completed, skillIDs) {
			out = append(out, userID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeSkills) AddXP(_ context.Context, userID, skillID string, amount int64) error {
	f.xp[userID+"|"+skillID] += amount
	return nil
}

func (f *fakeSkills) CompleteSkill(_ context.Context, userID, skillID string) error {
	f.completed[userID] = append(f.completed[userID], skillID)
	return nil
}

type fakeIdentity struct {
	admins map[string]bool
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{admins: make(map[string]bool)}
}

func (f *fakeIdentity) IsAdmin(_ context.Context, userID string) (bool, error) {
	return f.admins[userID], nil
}

func (f *fakeIdentity) GetPublicProfile(_ context.Context, userID string) (*model.PublicProfile, error) {
	return &model.PublicProfile{
		ID:          userID,
		DisplayName: userID,
		Email:       userID + "@example.com",
	}, nil
}

type sentMail struct {
	template  string
	recipient string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeMailer) Send(_ context.Context, template, recipient string, _ map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{template: template, recipient: recipient})
}

type fakeRatingStore struct {
	mu      sync.Mutex
	ratings map[string]*model.LecturerRating
}

func newFakeRatingStore() *fakeRatingStore {
	return &fakeRatingStore{ratings: make(map[string]*model.LecturerRating)}
}

func (f *fakeRatingStore) Create(_ context.Context, r *model.LecturerRating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *r
	f.ratings[r.ID] = &cp
	return nil
}

func (f *fakeRatingStore) ListUnrated(_ context.Context, participantID string) ([]*model.LecturerRating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.LecturerRating
	for _, r := range f.ratings {
		if r.Rating == nil && r.ParticipantID != nil && *r.ParticipantID == participantID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRatingStore) GetUnrated(_ context.Context, participantID, ratingID string) (*model.LecturerRating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.ratings[ratingID]
	if !ok || r.Rating != nil || r.ParticipantID == nil || *r.ParticipantID != participantID {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRatingStore) SetRating(_ context.Context, ratingID string, rating int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.ratings[ratingID]; ok {
		r.Rating = &rating
		r.WebinarName = nil
		r.ParticipantID = nil
	}
	return nil
}

func (f *fakeRatingStore) ListRated(_ context.Context, lecturerID, skillID string) ([]*model.LecturerRating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.LecturerRating
	for _, r := range f.ratings {
		if r.Rating != nil && r.LecturerID == lecturerID && r.SkillID == skillID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRatingStore) Delete(_ context.Context, ratingID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.ratings[ratingID]
	delete(f.ratings, ratingID)
	return ok, nil
}

type fakeCache struct {
	clears int
}

func (f *fakeCache) Clear(_ context.Context, _ string) {
	f.clears++
}
