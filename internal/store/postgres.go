package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/pai-quiz/internal/errors"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

const dbTimeout = 5 * time.Second

// Postgres error codes the store maps onto application errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresStore is a PostgreSQL-backed Store. Curriculum modules, quiz questions and result
// answers are kept as JSONB documents; assignments live in their own table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store over an existing pool. The schema must already exist.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u quiz.User, teacherID string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	var teacher any
	if u.Role == quiz.RoleStudent {
		var role string
		err := s.pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, teacherID).Scan(&role)
		if stderrors.Is(err, pgx.ErrNoRows) || (err == nil && role != string(quiz.RoleTeacher)) {
			return errors.NotFound("teacher %s not found", teacherID)
		}
		if err != nil {
			return fmt.Errorf("lookup teacher: %w", err)
		}
		teacher = teacherID
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, role, profile_image, password_hash, teacher_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID,
		u.Name,
		u.Email,
		string(u.Role),
		nullIfEmpty(u.ProfileImage),
		u.PasswordHash,
		teacher,
		u.CreatedAt,
	)
	if isPgError(err, pgUniqueViolation) {
		return errors.AlreadyExists("email %s is already registered", u.Email)
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

const userColumns = `id, name, email, role, COALESCE(profile_image, ''), password_hash, created_at`

func scanUser(row pgx.Row) (quiz.User, error) {
	var u quiz.User
	var role string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &u.ProfileImage, &u.PasswordHash, &u.CreatedAt)
	u.Role = quiz.Role(role)
	return u, err
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (quiz.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (quiz.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (s *PostgresStore) getUser(ctx context.Context, query, key string) (quiz.User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	u, err := scanUser(s.pool.QueryRow(ctx, query, key))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return quiz.User{}, errors.NotFound("user %s not found", key)
	}
	if err != nil {
		return quiz.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetTeacher(ctx context.Context, id string) (quiz.Teacher, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil || u.Role != quiz.RoleTeacher {
		if err == nil || errors.Is(err, errors.CodeNotFound) {
			return quiz.Teacher{}, errors.NotFound("teacher %s not found", id)
		}
		return quiz.Teacher{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	t := quiz.Teacher{User: u}
	if t.StudentIDs, err = s.collectIDs(ctx,
		`SELECT id FROM users WHERE teacher_id = $1 ORDER BY created_at, id`, id); err != nil {
		return quiz.Teacher{}, fmt.Errorf("list students: %w", err)
	}
	if t.CurriculumIDs, err = s.collectIDs(ctx,
		`SELECT id FROM curricula WHERE teacher_id = $1 ORDER BY created_at, id`, id); err != nil {
		return quiz.Teacher{}, fmt.Errorf("list curricula: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) collectIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (s *PostgresStore) GetStudent(ctx context.Context, id string) (quiz.Student, error) {
	students, err := s.listStudents(ctx, `u.id = $1 AND u.role = 'student'`, id)
	if err != nil {
		return quiz.Student{}, err
	}
	if len(students) == 0 {
		return quiz.Student{}, errors.NotFound("student %s not found", id)
	}
	return students[0], nil
}

func (s *PostgresStore) ListStudentsByTeacher(ctx context.Context, teacherID string) ([]quiz.Student, error) {
	return s.listStudents(ctx, `u.teacher_id = $1`, teacherID)
}

// listStudents loads the students matching where, then their assignments and results in two
// bulk queries.
func (s *PostgresStore) listStudents(ctx context.Context, where string, arg string) ([]quiz.Student, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT u.id, u.name, u.email, u.role, COALESCE(u.profile_image, ''), u.password_hash, u.created_at,
		        COALESCE(u.teacher_id, '')
		 FROM users u
		 WHERE `+where+`
		 ORDER BY u.created_at, u.id`,
		arg,
	)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	students, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (quiz.Student, error) {
		var st quiz.Student
		var role string
		err := row.Scan(&st.ID, &st.Name, &st.Email, &role, &st.ProfileImage, &st.PasswordHash, &st.CreatedAt, &st.TeacherID)
		st.Role = quiz.Role(role)
		st.AssignedQuizIDs = []string{}
		st.CompletedQuizzes = map[string]quiz.QuizResult{}
		return st, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan students: %w", err)
	}
	if len(students) == 0 {
		return []quiz.Student{}, nil
	}

	index := make(map[string]int, len(students))
	for i, st := range students {
		index[st.ID] = i
	}

	rows, err = s.pool.Query(ctx,
		`SELECT a.student_id, a.quiz_id
		 FROM quiz_assignments a
		 JOIN users u ON u.id = a.student_id
		 WHERE `+where+`
		 ORDER BY a.assigned_at, a.quiz_id`,
		arg,
	)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	var studentID, quizID string
	_, err = pgx.ForEachRow(rows, []any{&studentID, &quizID}, func() error {
		i := index[studentID]
		students[i].AssignedQuizIDs = append(students[i].AssignedQuizIDs, quizID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan assignments: %w", err)
	}

	results, err := s.queryResults(ctx,
		`SELECT r.quiz_id, r.student_id, r.score, r.total_questions, r.answers, r.completed_at
		 FROM quiz_results r
		 JOIN users u ON u.id = r.student_id
		 WHERE `+where,
		arg,
	)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		i := index[r.StudentID]
		students[i].CompletedQuizzes[r.QuizID] = r
	}

	return students, nil
}

func (s *PostgresStore) CreateCurriculum(ctx context.Context, c quiz.Curriculum) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	modules, err := json.Marshal(nonNilModules(c.Modules))
	if err != nil {
		return fmt.Errorf("marshal modules: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO curricula (id, teacher_id, title, description, modules, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)`,
		c.ID, c.TeacherID, c.Title, c.Description, string(modules), c.CreatedAt, c.UpdatedAt,
	)
	switch {
	case isPgError(err, pgUniqueViolation):
		return errors.AlreadyExists("curriculum %s already exists", c.ID)
	case isPgError(err, pgForeignKeyViolation):
		return errors.NotFound("teacher %s not found", c.TeacherID)
	case err != nil:
		return fmt.Errorf("insert curriculum: %w", err)
	}
	return nil
}

const curriculumColumns = `id, teacher_id, title, description, modules, created_at, updated_at`

func scanCurriculum(row pgx.Row) (quiz.Curriculum, error) {
	var c quiz.Curriculum
	var modules []byte
	if err := row.Scan(&c.ID, &c.TeacherID, &c.Title, &c.Description, &modules, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return c, err
	}
	if err := json.Unmarshal(modules, &c.Modules); err != nil {
		return c, fmt.Errorf("unmarshal modules: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) GetCurriculum(ctx context.Context, id string) (quiz.Curriculum, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	c, err := scanCurriculum(s.pool.QueryRow(ctx, `SELECT `+curriculumColumns+` FROM curricula WHERE id = $1`, id))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return quiz.Curriculum{}, errors.NotFound("curriculum %s not found", id)
	}
	if err != nil {
		return quiz.Curriculum{}, fmt.Errorf("get curriculum: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListCurriculaByTeacher(ctx context.Context, teacherID string) ([]quiz.Curriculum, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+curriculumColumns+` FROM curricula WHERE teacher_id = $1 ORDER BY created_at, id`, teacherID)
	if err != nil {
		return nil, fmt.Errorf("query curricula: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (quiz.Curriculum, error) {
		return scanCurriculum(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan curricula: %w", err)
	}
	if out == nil {
		out = []quiz.Curriculum{}
	}
	return out, nil
}

func (s *PostgresStore) UpdateCurriculum(ctx context.Context, c quiz.Curriculum) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	modules, err := json.Marshal(nonNilModules(c.Modules))
	if err != nil {
		return fmt.Errorf("marshal modules: %w", err)
	}

	cmd, err := s.pool.Exec(ctx,
		`UPDATE curricula
		 SET title = $2, description = $3, modules = $4::jsonb, updated_at = $5
		 WHERE id = $1`,
		c.ID, c.Title, c.Description, string(modules), c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update curriculum: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return errors.NotFound("curriculum %s not found", c.ID)
	}
	return nil
}

func (s *PostgresStore) CreateQuiz(ctx context.Context, q quiz.Quiz) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	topics, err := json.Marshal(append([]quiz.TopicRef{}, q.Topics...))
	if err != nil {
		return fmt.Errorf("marshal topics: %w", err)
	}
	questions, err := json.Marshal(q.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if !hasRole(ctx, tx, q.CreatedBy, quiz.RoleTeacher) {
			return errors.NotFound("teacher %s not found", q.CreatedBy)
		}
		for _, sid := range q.AssignedTo {
			if !hasRole(ctx, tx, sid, quiz.RoleStudent) {
				return errors.NotFound("student %s not found", sid)
			}
		}

		_, err := tx.Exec(ctx,
			`INSERT INTO quizzes (id, curriculum_id, title, description, language, topics, questions, created_by, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb, $8, $9)`,
			q.ID, nullIfEmpty(q.CurriculumID), q.Title, q.Description, q.Language,
			string(topics), string(questions), q.CreatedBy, q.CreatedAt,
		)
		if isPgError(err, pgUniqueViolation) {
			return errors.AlreadyExists("quiz %s already exists", q.ID)
		}
		if err != nil {
			return fmt.Errorf("insert quiz: %w", err)
		}

		for _, sid := range q.AssignedTo {
			_, err := tx.Exec(ctx,
				`INSERT INTO quiz_assignments (quiz_id, student_id, assigned_at)
				 VALUES ($1, $2, $3)
				 ON CONFLICT (quiz_id, student_id) DO NOTHING`,
				q.ID, sid, q.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("assign quiz to %s: %w", sid, err)
			}
		}
		return nil
	})
}

func hasRole(ctx context.Context, tx pgx.Tx, userID string, role quiz.Role) bool {
	var ok bool
	err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND role = $2)`, userID, string(role)).Scan(&ok)
	return err == nil && ok
}

const quizColumns = `q.id, COALESCE(q.curriculum_id, ''), q.title, q.description, q.language, q.topics, q.questions,
	q.created_by, q.created_at,
	COALESCE((SELECT array_agg(a.student_id ORDER BY a.assigned_at, a.student_id)
	          FROM quiz_assignments a WHERE a.quiz_id = q.id), '{}')`

func scanQuiz(row pgx.Row) (quiz.Quiz, error) {
	var q quiz.Quiz
	var topics, questions []byte
	if err := row.Scan(&q.ID, &q.CurriculumID, &q.Title, &q.Description, &q.Language, &topics, &questions,
		&q.CreatedBy, &q.CreatedAt, &q.AssignedTo); err != nil {
		return q, err
	}
	if err := json.Unmarshal(topics, &q.Topics); err != nil {
		return q, fmt.Errorf("unmarshal topics: %w", err)
	}
	if err := json.Unmarshal(questions, &q.Questions); err != nil {
		return q, fmt.Errorf("unmarshal questions: %w", err)
	}
	return q, nil
}

func (s *PostgresStore) GetQuiz(ctx context.Context, id string) (quiz.Quiz, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	q, err := scanQuiz(s.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes q WHERE q.id = $1`, id))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return quiz.Quiz{}, errors.NotFound("quiz %s not found", id)
	}
	if err != nil {
		return quiz.Quiz{}, fmt.Errorf("get quiz: %w", err)
	}
	return q, nil
}

func (s *PostgresStore) ListQuizzesByTeacher(ctx context.Context, teacherID string) ([]quiz.Quiz, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+quizColumns+` FROM quizzes q WHERE q.created_by = $1 ORDER BY q.created_at DESC, q.id`, teacherID)
	if err != nil {
		return nil, fmt.Errorf("query quizzes: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (quiz.Quiz, error) {
		return scanQuiz(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan quizzes: %w", err)
	}
	if out == nil {
		out = []quiz.Quiz{}
	}
	return out, nil
}

func (s *PostgresStore) UpsertResult(ctx context.Context, r quiz.QuizResult) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO quiz_results (quiz_id, student_id, score, total_questions, answers, completed_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6)
		 ON CONFLICT (quiz_id, student_id) DO UPDATE
		 SET score = EXCLUDED.score,
		     total_questions = EXCLUDED.total_questions,
		     answers = EXCLUDED.answers,
		     completed_at = EXCLUDED.completed_at`,
		r.QuizID, r.StudentID, r.Score, r.TotalQuestions, string(answers), r.CompletedAt,
	)
	if isPgError(err, pgForeignKeyViolation) {
		return errors.NotFound("quiz %s or student %s not found", r.QuizID, r.StudentID)
	}
	if err != nil {
		return fmt.Errorf("upsert result: %w", err)
	}
	return nil
}

const resultColumns = `quiz_id, student_id, score, total_questions, answers, completed_at`

func (s *PostgresStore) GetResult(ctx context.Context, quizID, studentID string) (quiz.QuizResult, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	results, err := s.queryResults(ctx,
		`SELECT `+resultColumns+` FROM quiz_results WHERE quiz_id = $1 AND student_id = $2`, quizID, studentID)
	if err != nil {
		return quiz.QuizResult{}, err
	}
	if len(results) == 0 {
		return quiz.QuizResult{}, errors.NotFound("no result for quiz %s", quizID)
	}
	return results[0], nil
}

func (s *PostgresStore) ListResultsByStudent(ctx context.Context, studentID string) ([]quiz.QuizResult, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return s.queryResults(ctx,
		`SELECT `+resultColumns+` FROM quiz_results WHERE student_id = $1 ORDER BY completed_at DESC, quiz_id`, studentID)
}

func (s *PostgresStore) ListResultsByQuiz(ctx context.Context, quizID string) ([]quiz.QuizResult, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return s.queryResults(ctx,
		`SELECT `+resultColumns+` FROM quiz_results WHERE quiz_id = $1 ORDER BY completed_at DESC, student_id`, quizID)
}

func (s *PostgresStore) queryResults(ctx context.Context, query string, args ...any) ([]quiz.QuizResult, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (quiz.QuizResult, error) {
		var r quiz.QuizResult
		var answers []byte
		if err := row.Scan(&r.QuizID, &r.StudentID, &r.Score, &r.TotalQuestions, &answers, &r.CompletedAt); err != nil {
			return r, err
		}
		if err := json.Unmarshal(answers, &r.Answers); err != nil {
			return r, fmt.Errorf("unmarshal answers: %w", err)
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan results: %w", err)
	}
	if out == nil {
		out = []quiz.QuizResult{}
	}
	return out, nil
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == code
}

func nonNilModules(m []quiz.Module) []quiz.Module {
	if m == nil {
		return []quiz.Module{}
	}
	return m
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
