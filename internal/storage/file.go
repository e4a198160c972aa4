package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/yourname/habitcoach/internal"
)

// FileStorage keeps everything in memory guarded by a RWMutex and
// persists each collection to its own JSON file through a debounced
// save worker. Log uniqueness per (user, habit, day) falls out of the
// composite map key.
type FileStorage struct {
	users      map[string]*internal.User // id -> User
	emailIndex map[string]string         // lowercased email -> user id
	habits     map[string]*internal.Habit
	userHabits map[string][]*internal.Habit // userID -> habits, newest first
	logs       map[string]*internal.HabitLog // logKey -> HabitLog
	userLogs   map[string][]*internal.HabitLog

	mu sync.RWMutex

	usersFile  string
	habitsFile string
	logsFile   string

	saveUsersChan  chan struct{}
	saveHabitsChan chan struct{}
	saveLogsChan   chan struct{}
	shutdownChan   chan struct{}
	saveDelay      time.Duration

	logger internal.Logger
}

// storedUser is the on-disk user shape. The API model hides secret
// fields from JSON, so persistence needs its own encoding.
type storedUser struct {
	ID               string           `json:"id"`
	Email            string           `json:"email"`
	Name             string           `json:"name"`
	PasswordHash     string           `json:"passwordHash"`
	CoachPersona     internal.Persona `json:"coachPersona"`
	ResetCodeHash    string           `json:"resetCodeHash,omitempty"`
	ResetCodeExpires *time.Time       `json:"resetCodeExpires,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
}

func NewFileStorage(usersFile, habitsFile, logsFile string, logger internal.Logger) (*FileStorage, error) {
	s := &FileStorage{
		users:          make(map[string]*internal.User),
		emailIndex:     make(map[string]string),
		habits:         make(map[string]*internal.Habit),
		userHabits:     make(map[string][]*internal.Habit),
		logs:           make(map[string]*internal.HabitLog),
		userLogs:       make(map[string][]*internal.HabitLog),
		usersFile:      usersFile,
		habitsFile:     habitsFile,
		logsFile:       logsFile,
		saveUsersChan:  make(chan struct{}, 1),
		saveHabitsChan: make(chan struct{}, 1),
		saveLogsChan:   make(chan struct{}, 1),
		shutdownChan:   make(chan struct{}),
		saveDelay:      500 * time.Millisecond,
		logger:         logger,
	}

	if err := s.loadUsers(); err != nil {
		logger.Errorf("storage: failed to load users: %v", err)
		return nil, err
	}
	if err := s.loadHabits(); err != nil {
		logger.Errorf("storage: failed to load habits: %v", err)
		return nil, err
	}
	if err := s.loadLogs(); err != nil {
		logger.Errorf("storage: failed to load habit logs: %v", err)
		return nil, err
	}

	go s.saveWorker(s.saveUsersChan, s.saveUsers)
	go s.saveWorker(s.saveHabitsChan, s.saveHabits)
	go s.saveWorker(s.saveLogsChan, s.saveLogs)

	return s, nil
}

func logKey(userID, habitID string, date time.Time) string {
	return userID + "|" + habitID + "|" + date.Format("2006-01-02")
}

func decodeFile(path string, target interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func (s *FileStorage) loadUsers() error {
	var users []*storedUser
	if err := decodeFile(s.usersFile, &users); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range users {
		user := &internal.User{
			ID:               u.ID,
			Email:            u.Email,
			Name:             u.Name,
			PasswordHash:     u.PasswordHash,
			CoachPersona:     u.CoachPersona,
			ResetCodeHash:    u.ResetCodeHash,
			ResetCodeExpires: u.ResetCodeExpires,
			CreatedAt:        u.CreatedAt,
		}
		s.users[user.ID] = user
		s.emailIndex[user.Email] = user.ID
	}
	return nil
}

func (s *FileStorage) loadHabits() error {
	var habits []*internal.Habit
	if err := decodeFile(s.habitsFile, &habits); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range habits {
		s.habits[h.ID] = h
		s.userHabits[h.UserID] = append(s.userHabits[h.UserID], h)
	}
	for userID := range s.userHabits {
		sort.Slice(s.userHabits[userID], func(i, j int) bool {
			return s.userHabits[userID][i].CreatedAt.After(s.userHabits[userID][j].CreatedAt)
		})
	}
	return nil
}

func (s *FileStorage) loadLogs() error {
	var logs []*internal.HabitLog
	if err := decodeFile(s.logsFile, &logs); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range logs {
		s.logs[logKey(l.UserID, l.HabitID, l.Date)] = l
		s.userLogs[l.UserID] = append(s.userLogs[l.UserID], l)
	}
	return nil
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}
	return os.Rename(tempFile, filePath)
}

func (s *FileStorage) saveUsers() error {
	s.mu.RLock()
	users := make([]*storedUser, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, &storedUser{
			ID:               u.ID,
			Email:            u.Email,
			Name:             u.Name,
			PasswordHash:     u.PasswordHash,
			CoachPersona:     u.CoachPersona,
			ResetCodeHash:    u.ResetCodeHash,
			ResetCodeExpires: u.ResetCodeExpires,
			CreatedAt:        u.CreatedAt,
		})
	}
	s.mu.RUnlock()
	return atomicWriteFileJSON(s.usersFile, users)
}

func (s *FileStorage) saveHabits() error {
	s.mu.RLock()
	habits := make([]*internal.Habit, 0, len(s.habits))
	for _, h := range s.habits {
		habits = append(habits, h)
	}
	s.mu.RUnlock()
	return atomicWriteFileJSON(s.habitsFile, habits)
}

func (s *FileStorage) saveLogs() error {
	s.mu.RLock()
	logs := make([]*internal.HabitLog, 0, len(s.logs))
	for _, l := range s.logs {
		logs = append(logs, l)
	}
	s.mu.RUnlock()
	return atomicWriteFileJSON(s.logsFile, logs)
}

// saveWorker batches save signals to avoid a disk write per mutation.
func (s *FileStorage) saveWorker(signal <-chan struct{}, save func() error) {
	timer := time.NewTimer(s.saveDelay)
	defer timer.Stop()

	for {
		select {
		case <-signal:
			timer.Reset(s.saveDelay)
		case <-timer.C:
			if err := save(); err != nil {
				s.logger.Errorf("storage: save failed: %v", err)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func signalSave(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// --- UserRepository ---

func (s *FileStorage) CreateUser(ctx context.Context, user *internal.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.emailIndex[user.Email]; taken {
		return ErrDuplicate
	}
	u := *user
	s.users[u.ID] = &u
	s.emailIndex[u.Email] = u.ID
	signalSave(s.saveUsersChan)
	return nil
}

func (s *FileStorage) GetUserByID(ctx context.Context, id string) (*internal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *FileStorage) GetUserByEmail(ctx context.Context, email string) (*internal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emailIndex[email]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *s.users[id]
	return &copied, nil
}

func (s *FileStorage) UpdateUser(ctx context.Context, user *internal.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	delete(s.emailIndex, existing.Email)
	u := *user
	s.users[u.ID] = &u
	s.emailIndex[u.Email] = u.ID
	signalSave(s.saveUsersChan)
	return nil
}

func (s *FileStorage) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.emailIndex, u.Email)
	delete(s.users, id)
	signalSave(s.saveUsersChan)
	return nil
}

// --- HabitRepository ---

func (s *FileStorage) CreateHabit(ctx context.Context, habit *internal.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := *habit
	s.habits[h.ID] = &h

	// Insert maintaining newest-first order.
	habits := s.userHabits[h.UserID]
	inserted := false
	for i, existing := range habits {
		if existing.CreatedAt.Before(h.CreatedAt) {
			habits = append(habits[:i], append([]*internal.Habit{&h}, habits[i:]...)...)
			inserted = true
			break
		}
	}
	if !inserted {
		habits = append(habits, &h)
	}
	s.userHabits[h.UserID] = habits

	signalSave(s.saveHabitsChan)
	return nil
}

func (s *FileStorage) ListHabits(ctx context.Context, userID string) ([]internal.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	habitsPtr := s.userHabits[userID]
	habits := make([]internal.Habit, len(habitsPtr))
	for i, h := range habitsPtr {
		habits[i] = *h
	}
	return habits, nil
}

func (s *FileStorage) GetHabit(ctx context.Context, userID, habitID string) (*internal.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.habits[habitID]
	if !ok || h.UserID != userID {
		return nil, ErrNotFound
	}
	copied := *h
	return &copied, nil
}

func (s *FileStorage) UpdateHabit(ctx context.Context, habit *internal.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.habits[habit.ID]
	if !ok || existing.UserID != habit.UserID {
		return ErrNotFound
	}
	*existing = *habit
	signalSave(s.saveHabitsChan)
	return nil
}

func (s *FileStorage) DeleteHabit(ctx context.Context, userID, habitID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.habits[habitID]
	if !ok || h.UserID != userID {
		return ErrNotFound
	}
	delete(s.habits, habitID)
	habits := s.userHabits[userID]
	for i, candidate := range habits {
		if candidate.ID == habitID {
			s.userHabits[userID] = append(habits[:i], habits[i+1:]...)
			break
		}
	}
	signalSave(s.saveHabitsChan)
	return nil
}

func (s *FileStorage) DeleteHabitsForUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.userHabits[userID] {
		delete(s.habits, h.ID)
	}
	delete(s.userHabits, userID)
	signalSave(s.saveHabitsChan)
	return nil
}

// --- HabitLogRepository ---

func (s *FileStorage) InsertLog(ctx context.Context, log *internal.HabitLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := logKey(log.UserID, log.HabitID, log.Date)
	if _, exists := s.logs[key]; exists {
		return ErrDuplicate
	}
	l := *log
	s.logs[key] = &l
	s.userLogs[l.UserID] = append(s.userLogs[l.UserID], &l)
	signalSave(s.saveLogsChan)
	return nil
}

func (s *FileStorage) UpsertLog(ctx context.Context, log *internal.HabitLog) (*internal.HabitLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := logKey(log.UserID, log.HabitID, log.Date)
	if existing, ok := s.logs[key]; ok {
		existing.Status = log.Status
		existing.Note = log.Note
		copied := *existing
		signalSave(s.saveLogsChan)
		return &copied, nil
	}
	l := *log
	s.logs[key] = &l
	s.userLogs[l.UserID] = append(s.userLogs[l.UserID], &l)
	signalSave(s.saveLogsChan)
	copied := l
	return &copied, nil
}

func (s *FileStorage) FindLog(ctx context.Context, userID, habitID string, date time.Time) (*internal.HabitLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.logs[logKey(userID, habitID, date)]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *l
	return &copied, nil
}

func (s *FileStorage) FindDoneLogSince(ctx context.Context, userID, habitID string, since time.Time) (*internal.HabitLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.userLogs[userID] {
		if l.HabitID == habitID && l.Status == internal.StatusDone && !l.Date.Before(since) {
			copied := *l
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *FileStorage) ListLogs(ctx context.Context, userID string, filter LogFilter) ([]internal.HabitLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	logs := []internal.HabitLog{}
	for _, l := range s.userLogs[userID] {
		if filter.HabitID != "" && l.HabitID != filter.HabitID {
			continue
		}
		if !filter.Since.IsZero() && l.Date.Before(filter.Since) {
			continue
		}
		logs = append(logs, *l)
	}
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].Date.After(logs[j].Date)
	})
	return logs, nil
}

func (s *FileStorage) DeleteLogsForHabit(ctx context.Context, userID, habitID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.userLogs[userID][:0]
	for _, l := range s.userLogs[userID] {
		if l.HabitID == habitID {
			delete(s.logs, logKey(l.UserID, l.HabitID, l.Date))
			continue
		}
		kept = append(kept, l)
	}
	s.userLogs[userID] = kept
	signalSave(s.saveLogsChan)
	return nil
}

func (s *FileStorage) DeleteLogsForUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.userLogs[userID] {
		delete(s.logs, logKey(l.UserID, l.HabitID, l.Date))
	}
	delete(s.userLogs, userID)
	signalSave(s.saveLogsChan)
	return nil
}

// Close stops the save workers and flushes pending data synchronously.
func (s *FileStorage) Close() error {
	close(s.shutdownChan)
	if err := s.saveUsers(); err != nil {
		return err
	}
	if err := s.saveHabits(); err != nil {
		return err
	}
	return s.saveLogs()
}

var _ Backend = (*FileStorage)(nil)
