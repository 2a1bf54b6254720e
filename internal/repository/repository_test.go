package repository

import (
	"testing"
	"time"

	"repertoire/internal/database"
	"repertoire/internal/models"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.InitializeSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *database.DB) *models.User {
	t.Helper()
	user, err := NewUserRepository(db).CreateUser("test@example.com", "hash", "Test User")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func createTestStudy(t *testing.T, db *database.DB, userID int64) *models.Study {
	t.Helper()
	study := &models.Study{
		ID:      "study-1",
		UserID:  userID,
		Name:    "Italian Game",
		Side:    "white",
		RootFEN: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		Moves: []models.MoveNode{
			{
				ID: "n1", San: "e4", UCI: "e2e4", MainLine: true,
				FEN: "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
				Children: []models.MoveNode{
					{
						ID: "n2", San: "e5", UCI: "e7e5", MainLine: true,
						FEN: "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2",
					},
				},
			},
		},
	}
	if err := NewStudyRepository(db).CreateStudy(study); err != nil {
		t.Fatalf("failed to create study: %v", err)
	}
	return study
}

func TestUserAndSessionLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)

	user := createTestUser(t, db)
	if user.ID == 0 {
		t.Fatal("expected user ID to be assigned")
	}

	found, err := repo.GetUserByEmail("test@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if found == nil || found.ID != user.ID {
		t.Fatalf("expected to find created user, got %+v", found)
	}

	missing, err := repo.GetUserByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for unknown email")
	}

	expires := time.Now().Add(time.Hour)
	if _, err := repo.CreateSession("sess-1", user.ID, expires); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	session, err := repo.GetSession("sess-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if session == nil || session.UserID != user.ID {
		t.Fatalf("expected session for user %d, got %+v", user.ID, session)
	}

	if err := repo.DeleteSession("sess-1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	session, err = repo.GetSession("sess-1")
	if err != nil {
		t.Fatalf("GetSession after delete: %v", err)
	}
	if session != nil {
		t.Fatal("expected session to be gone")
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	user := createTestUser(t, db)

	if _, err := repo.CreateSession("expired", user.ID, time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := repo.CreateSession("live", user.ID, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if err := repo.DeleteExpiredSessions(); err != nil {
		t.Fatalf("DeleteExpiredSessions: %v", err)
	}

	if s, _ := repo.GetSession("expired"); s != nil {
		t.Error("expected expired session to be removed")
	}
	if s, _ := repo.GetSession("live"); s == nil {
		t.Error("expected live session to survive")
	}
}

func TestOAuthLinking(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	user := createTestUser(t, db)

	if err := repo.LinkOAuthProvider(user.ID, "google", "sub-123"); err != nil {
		t.Fatalf("LinkOAuthProvider: %v", err)
	}

	found, err := repo.GetUserByOAuth("google", "sub-123")
	if err != nil {
		t.Fatalf("GetUserByOAuth: %v", err)
	}
	if found == nil || found.ID != user.ID {
		t.Fatalf("expected linked user, got %+v", found)
	}

	// Linking twice must fail
	if err := repo.LinkOAuthProvider(user.ID, "google", "sub-456"); err == nil {
		t.Error("expected error when linking an already linked user")
	}
}

func TestStudyRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudyRepository(db)
	user := createTestUser(t, db)
	study := createTestStudy(t, db, user.ID)

	found, err := repo.GetStudy(user.ID, study.ID)
	if err != nil {
		t.Fatalf("GetStudy: %v", err)
	}
	if found == nil {
		t.Fatal("expected to find study")
	}
	if found.Name != "Italian Game" || found.Side != "white" {
		t.Errorf("unexpected study fields: %+v", found)
	}
	if len(found.Moves) != 1 || len(found.Moves[0].Children) != 1 {
		t.Fatalf("move tree did not survive the round trip: %+v", found.Moves)
	}
	if found.Moves[0].Children[0].UCI != "e7e5" {
		t.Errorf("expected child move e7e5, got %s", found.Moves[0].Children[0].UCI)
	}

	// Other users must not see it
	other, err := repo.GetStudy(user.ID+1, study.ID)
	if err != nil {
		t.Fatalf("GetStudy for other user: %v", err)
	}
	if other != nil {
		t.Error("expected study to be scoped to its owner")
	}

	found.Name = "Italian Game (revised)"
	if err := repo.UpdateStudy(found); err != nil {
		t.Fatalf("UpdateStudy: %v", err)
	}
	updated, _ := repo.GetStudy(user.ID, study.ID)
	if updated.Name != "Italian Game (revised)" {
		t.Errorf("expected updated name, got %s", updated.Name)
	}

	if err := repo.DeleteStudy(user.ID, study.ID); err != nil {
		t.Fatalf("DeleteStudy: %v", err)
	}
	if err := repo.DeleteStudy(user.ID, study.ID); err == nil {
		t.Error("expected error deleting a missing study")
	}
}

func TestPracticeProgressUpsert(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudyRepository(db)
	user := createTestUser(t, db)
	study := createTestStudy(t, db, user.ID)

	progress, err := repo.GetProgress(user.ID, study.ID)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if progress != nil {
		t.Fatal("expected nil progress before first save")
	}

	if err := repo.SaveProgress(&models.PracticeProgress{
		UserID: user.ID, StudyID: study.ID, LinesCompleted: 1, LastLineIndex: 0,
	}); err != nil {
		t.Fatalf("SaveProgress insert: %v", err)
	}
	if err := repo.SaveProgress(&models.PracticeProgress{
		UserID: user.ID, StudyID: study.ID, LinesCompleted: 2, LastLineIndex: 1,
	}); err != nil {
		t.Fatalf("SaveProgress update: %v", err)
	}

	progress, err = repo.GetProgress(user.ID, study.ID)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if progress.LinesCompleted != 2 || progress.LastLineIndex != 1 {
		t.Errorf("expected upserted progress 2/1, got %+v", progress)
	}
}

func TestMistakeUpsertAndDue(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMistakeRepository(db)
	user := createTestUser(t, db)
	study := createTestStudy(t, db, user.ID)
	now := time.Now()

	m := &models.MistakeRecord{
		UserID:      user.ID,
		StudyID:     study.ID,
		NodeID:      "n2",
		ExpectedUCI: "e7e5",
		WrongCount:  1,
		LastAttempt: now,
		NextReview:  now.Add(-time.Minute),
	}
	if err := repo.SaveMistake(m); err != nil {
		t.Fatalf("SaveMistake insert: %v", err)
	}
	if m.ID == 0 {
		t.Fatal("expected mistake ID to be assigned")
	}

	due, err := repo.GetDueMistakes(user.ID, now)
	if err != nil {
		t.Fatalf("GetDueMistakes: %v", err)
	}
	if len(due) != 1 || due[0].NodeID != "n2" {
		t.Fatalf("expected one due mistake for n2, got %+v", due)
	}

	m.Streak = 1
	m.NextReview = now.Add(4 * time.Hour)
	if err := repo.SaveMistake(m); err != nil {
		t.Fatalf("SaveMistake update: %v", err)
	}

	due, err = repo.GetDueMistakes(user.ID, now)
	if err != nil {
		t.Fatalf("GetDueMistakes: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("expected no due mistakes after rescheduling, got %d", len(due))
	}

	count, err := repo.CountDueMistakes(user.ID, now.Add(5*time.Hour))
	if err != nil {
		t.Fatalf("CountDueMistakes: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 due mistake in 5 hours, got %d", count)
	}

	users, err := repo.UsersWithDueMistakes(now.Add(5 * time.Hour))
	if err != nil {
		t.Fatalf("UsersWithDueMistakes: %v", err)
	}
	if len(users) != 1 || users[0] != user.ID {
		t.Errorf("expected user %d in due list, got %v", user.ID, users)
	}
}

func TestDrillHistory(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDrillRepository(db)
	user := createTestUser(t, db)
	study := createTestStudy(t, db, user.ID)

	done := time.Now()
	first := &models.DrillSession{
		UserID: user.ID, StudyID: study.ID,
		StartedAt: done.Add(-time.Minute), CompletedAt: &done,
		TotalLines: 2, LinesDone: 2, CorrectMoves: 6, WrongAttempts: 1, ElapsedMs: 60000,
	}
	if err := repo.SaveSession(first); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	second := &models.DrillSession{
		UserID: user.ID, StudyID: study.ID,
		StartedAt: done, CompletedAt: &done,
		TotalLines: 2, LinesDone: 2, CorrectMoves: 6, WrongAttempts: 0, ElapsedMs: 45000,
	}
	if err := repo.SaveSession(second); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	sessions, err := repo.GetSessionsByStudy(user.ID, study.ID, 10)
	if err != nil {
		t.Fatalf("GetSessionsByStudy: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}

	best, err := repo.BestElapsedMs(user.ID, study.ID)
	if err != nil {
		t.Fatalf("BestElapsedMs: %v", err)
	}
	if best != 45000 {
		t.Errorf("expected best time 45000, got %d", best)
	}
}

func TestPuzzleFlow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPuzzleRepository(db)
	user := createTestUser(t, db)

	easy := &models.Puzzle{ID: "p1", FEN: "8/8/8/8/8/8/8/8 w - - 0 1", Moves: "e2e4 e7e5", Rating: 1200}
	hard := &models.Puzzle{ID: "p2", FEN: "8/8/8/8/8/8/8/8 w - - 0 1", Moves: "d2d4 d7d5", Rating: 1800}
	for _, p := range []*models.Puzzle{easy, hard} {
		if err := repo.CreatePuzzle(p); err != nil {
			t.Fatalf("CreatePuzzle: %v", err)
		}
	}
	// Duplicate insert is a no-op
	if err := repo.CreatePuzzle(easy); err != nil {
		t.Fatalf("CreatePuzzle duplicate: %v", err)
	}

	next, err := repo.GetUnsolvedPuzzle(user.ID)
	if err != nil {
		t.Fatalf("GetUnsolvedPuzzle: %v", err)
	}
	if next == nil || next.ID != "p1" {
		t.Fatalf("expected lowest-rated unsolved puzzle p1, got %+v", next)
	}

	if err := repo.SaveAttempt(&models.PuzzleAttempt{
		UserID: user.ID, PuzzleID: "p1", Solved: true, ElapsedMs: 8000,
	}); err != nil {
		t.Fatalf("SaveAttempt: %v", err)
	}

	next, err = repo.GetUnsolvedPuzzle(user.ID)
	if err != nil {
		t.Fatalf("GetUnsolvedPuzzle: %v", err)
	}
	if next == nil || next.ID != "p2" {
		t.Fatalf("expected p2 after solving p1, got %+v", next)
	}

	solved, err := repo.SolvedCount(user.ID)
	if err != nil {
		t.Fatalf("SolvedCount: %v", err)
	}
	if solved != 1 {
		t.Errorf("expected 1 solved puzzle, got %d", solved)
	}
}
