package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"

	"github.com/Freeeeeet/school_timetable/internal/lock"
	"github.com/Freeeeeet/school_timetable/internal/model"
	"github.com/Freeeeeet/school_timetable/internal/repository/memory"
	"github.com/Freeeeeet/school_timetable/internal/service"
)

type testServer struct {
	router *gin.Engine
	db     *memory.DB
	school uuid.UUID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := memory.Open()
	school := uuid.New()
	require.True(t, memory.SeedIfEmpty(db, school))

	logger := zaptest.NewLogger(t)
	structures := memory.NewStructureRepository(db)
	classrooms := memory.NewClassroomRepository(db)
	store := service.NewScheduleStore(classrooms, structures)
	coordinator := service.NewAssignmentCoordinator(
		store, service.NewConflictDetector(store), structures,
		lock.NewLocalLocker(time.Second), memory.NewDirectory(db), 3, logger,
	)
	registry := service.NewStructureRegistry(structures, classrooms, logger)

	return &testServer{
		router: NewRouter(NewHandler(registry, coordinator, logger), logger),
		db:     db,
		school: school,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) url(format string, args ...any) string {
	return fmt.Sprintf("/api/schools/%s", s.school) + fmt.Sprintf(format, args...)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func timings() model.StructureInput {
	return model.StructureInput{
		Name: "Primary Timings",
		Periods: []model.Period{
			{ID: "P1", Name: "Period 1", StartTime: "09:00", EndTime: "09:45", Kind: model.PeriodKindClass},
			{ID: "BRK", Name: "Break", StartTime: "09:45", EndTime: "10:00", Kind: model.PeriodKindBreak},
			{ID: "P2", Name: "Period 2", StartTime: "10:00", EndTime: "10:45", Kind: model.PeriodKindClass},
		},
		WorkingDays: []model.DayName{model.Monday, model.Tuesday, model.Wednesday},
	}
}

// classrooms returns seeded classrooms by name
func (s *testServer) classrooms(t *testing.T) map[string]uuid.UUID {
	t.Helper()
	w := s.do(t, http.MethodGet, s.url("/classrooms"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := map[string]uuid.UUID{}
	for _, c := range decode[[]classroomResponse](t, w) {
		out[c.Name] = c.ID
	}
	return out
}

func (s *testServer) createStructure(t *testing.T) model.Structure {
	t.Helper()
	w := s.do(t, http.MethodPost, s.url("/structures"), timings())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[model.Structure](t, w)
}

func (s *testServer) assign(t *testing.T, classroomID, structureID uuid.UUID) {
	t.Helper()
	w := s.do(t, http.MethodPut, s.url("/classrooms/%s/structure", classroomID), gin.H{"structureId": structureID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestStructures_CRUD(t *testing.T) {
	s := newTestServer(t)

	created := s.createStructure(t)
	assert.Equal(t, "Primary Timings", created.Name)
	assert.Len(t, created.Periods, 3)

	w := s.do(t, http.MethodGet, s.url("/structures/%s", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	in := timings()
	in.Name = "Secondary Timings"
	w = s.do(t, http.MethodPut, s.url("/structures/%s", created.ID), in)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Secondary Timings", decode[model.Structure](t, w).Name)

	w = s.do(t, http.MethodGet, s.url("/structures"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]model.StructureSummary](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].PeriodCount)
	assert.Zero(t, list[0].AssignedClassroomCount)
}

func TestStructures_Validation(t *testing.T) {
	s := newTestServer(t)

	in := timings()
	in.Name = ""
	in.Periods[0].EndTime = "08:00"

	w := s.do(t, http.MethodPost, s.url("/structures"), in)
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decode[struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}](t, w)
	assert.Contains(t, body.Fields, "name")
	assert.Contains(t, body.Fields, "periods[0].endTime")
}

func TestStructures_NotFound(t *testing.T) {
	s := newTestServer(t)
	created := s.createStructure(t)

	tests := []struct {
		name string
		path string
		code int
	}{
		{"unknown id", s.url("/structures/%s", uuid.New()), http.StatusNotFound},
		{"other school", fmt.Sprintf("/api/schools/%s/structures/%s", uuid.New(), created.ID), http.StatusNotFound},
		{"bad uuid", s.url("/structures/not-a-uuid"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestStructures_TwoPhaseDelete(t *testing.T) {
	s := newTestServer(t)
	st := s.createStructure(t)
	rooms := s.classrooms(t)
	s.assign(t, rooms["Grade 1A"], st.ID)

	w := s.do(t, http.MethodDelete, s.url("/structures/%s", st.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	impact := decode[model.DeleteImpact](t, w)
	assert.False(t, impact.Deleted)
	assert.Equal(t, 1, impact.AffectedClassrooms)
	assert.Equal(t, []string{"Grade 1A"}, impact.ClassroomNames)

	w = s.do(t, http.MethodDelete, s.url("/structures/%s?confirm=true", st.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[model.DeleteImpact](t, w).Deleted)

	w = s.do(t, http.MethodGet, s.url("/classrooms/%s/schedule", rooms["Grade 1A"]), nil)
	require.Equal(t, http.StatusOK, w.Code)
	sched := decode[model.Schedule](t, w)
	assert.Nil(t, sched.StructureID)
	assert.Empty(t, sched.Grid)
}

func TestSlots(t *testing.T) {
	s := newTestServer(t)
	st := s.createStructure(t)
	rooms := s.classrooms(t)
	a, b := rooms["Grade 1A"], rooms["Grade 1B"]
	s.assign(t, a, st.ID)
	s.assign(t, b, st.ID)

	w := s.do(t, http.MethodPut, s.url("/classrooms/%s/schedule/Mon/P1", a),
		setSlotRequest{Subject: "Math", TeacherID: "t-ivanova"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sched := decode[model.Schedule](t, w)
	assert.Equal(t, model.SlotAssignment{Subject: "Math", TeacherID: "t-ivanova"}, sched.Slot(model.Monday, "P1"))

	t.Run("conflict", func(t *testing.T) {
		w := s.do(t, http.MethodPut, s.url("/classrooms/%s/schedule/Mon/P1", b),
			setSlotRequest{Subject: "Physics", TeacherID: "t-ivanova"})
		require.Equal(t, http.StatusConflict, w.Code)
		body := decode[map[string]any](t, w)
		assert.Equal(t, "Grade 1A", body["conflictingClassroomName"])
	})

	t.Run("availability", func(t *testing.T) {
		w := s.do(t, http.MethodGet, s.url("/availability?teacherId=t-ivanova&day=Mon&periodId=P1&excludeClassroomId=%s", b), nil)
		require.Equal(t, http.StatusOK, w.Code)
		avail := decode[model.Availability](t, w)
		assert.False(t, avail.Available)
		assert.Equal(t, "Grade 1A", avail.ConflictingClassroomName)

		w = s.do(t, http.MethodGet, s.url("/availability?teacherId=t-ivanova&day=Mon&periodId=P1&excludeClassroomId=%s", a), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decode[model.Availability](t, w).Available)
	})

	t.Run("availability query", func(t *testing.T) {
		w := s.do(t, http.MethodGet, s.url("/availability?day=FUNDAY"), nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decode[struct {
			Fields map[string]string `json:"fields"`
		}](t, w)
		assert.Contains(t, body.Fields, "teacherId")
		assert.Contains(t, body.Fields, "day")
		assert.Contains(t, body.Fields, "periodId")
	})

	t.Run("break period", func(t *testing.T) {
		w := s.do(t, http.MethodPut, s.url("/classrooms/%s/schedule/Mon/BRK", b),
			setSlotRequest{Subject: "Math"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown teacher", func(t *testing.T) {
		w := s.do(t, http.MethodPut, s.url("/classrooms/%s/schedule/Tue/P1", b),
			setSlotRequest{Subject: "Math", TeacherID: "t-nobody"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "teacherId")
	})

	t.Run("other school", func(t *testing.T) {
		path := fmt.Sprintf("/api/schools/%s/classrooms/%s/schedule/Mon/P2", uuid.New(), a)
		w := s.do(t, http.MethodPut, path, setSlotRequest{Subject: "Art"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("teacher timetable", func(t *testing.T) {
		w := s.do(t, http.MethodGet, s.url("/teachers/t-ivanova/timetable"), nil)
		require.Equal(t, http.StatusOK, w.Code)
		slots := decode[[]model.TeacherSlot](t, w)
		require.Len(t, slots, 1)
		assert.Equal(t, "Grade 1A", slots[0].ClassroomName)
		assert.Equal(t, "09:00", slots[0].StartTime)
	})

	t.Run("clear", func(t *testing.T) {
		w := s.do(t, http.MethodDelete, s.url("/classrooms/%s/schedule/Mon/P1", a), nil)
		require.Equal(t, http.StatusOK, w.Code)
		cleared := decode[model.Schedule](t, w)
		assert.True(t, cleared.Slot(model.Monday, "P1").IsEmpty())

		w = s.do(t, http.MethodPut, s.url("/classrooms/%s/schedule/Mon/P1", b),
			setSlotRequest{Subject: "Physics", TeacherID: "t-ivanova"})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestDirectory(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, s.url("/teachers"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Teacher](t, w), 3)

	w = s.do(t, http.MethodGet, s.url("/subjects"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Subject](t, w), 6)

	w = s.do(t, http.MethodGet, s.url("/teachers/t-smith/suggested-subject"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"subject":"English"}`, w.Body.String())

	w = s.do(t, http.MethodGet, s.url("/teachers/t-nobody/suggested-subject"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, s.url("/classrooms"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	classrooms := decode[[]classroomResponse](t, w)
	require.Len(t, classrooms, 4)
	assert.Equal(t, "Grade 1A", classrooms[0].Name)
}

func TestReconcile(t *testing.T) {
	s := newTestServer(t)
	st := s.createStructure(t)
	a := s.classrooms(t)["Grade 1A"]
	s.assign(t, a, st.ID)

	w := s.do(t, http.MethodPut, s.url("/classrooms/%s/schedule/Wed/P2", a), setSlotRequest{Subject: "Art"})
	require.Equal(t, http.StatusOK, w.Code)

	// a structure update prunes the dropped day right away
	in := timings()
	in.WorkingDays = []model.DayName{model.Monday, model.Tuesday}
	w = s.do(t, http.MethodPut, s.url("/structures/%s", st.ID), in)
	require.Equal(t, http.StatusOK, w.Code)

	raw, err := memory.NewClassroomRepository(s.db).GetByID(context.Background(), a)
	require.NoError(t, err)
	assert.Empty(t, raw.Timetable.Get(model.Wednesday, "P2").Subject)

	w = s.do(t, http.MethodPost, s.url("/structures/%s/reconcile", st.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode[map[string]any](t, w)["prunedCells"])
}

func TestStructures_UpdateDoesNotRestoreDroppedCells(t *testing.T) {
	s := newTestServer(t)
	st := s.createStructure(t)
	a := s.classrooms(t)["Grade 1A"]
	s.assign(t, a, st.ID)

	w := s.do(t, http.MethodPut, s.url("/classrooms/%s/schedule/Tue/P2", a), setSlotRequest{Subject: "Art"})
	require.Equal(t, http.StatusOK, w.Code)

	without := timings()
	without.WorkingDays = []model.DayName{model.Monday, model.Wednesday}
	w = s.do(t, http.MethodPut, s.url("/structures/%s", st.ID), without)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPut, s.url("/structures/%s", st.ID), timings())
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, s.url("/classrooms/%s/schedule", a), nil)
	require.Equal(t, http.StatusOK, w.Code)
	sched := decode[model.Schedule](t, w)
	assert.True(t, sched.Slot(model.Tuesday, "P2").IsEmpty())
}

func TestExport(t *testing.T) {
	s := newTestServer(t)
	st := s.createStructure(t)
	a := s.classrooms(t)["Grade 1A"]
	s.assign(t, a, st.ID)
	w := s.do(t, http.MethodPut, s.url("/classrooms/%s/schedule/Mon/P1", a),
		setSlotRequest{Subject: "Math", TeacherID: "t-ivanova"})
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("xlsx", func(t *testing.T) {
		w := s.do(t, http.MethodGet, s.url("/classrooms/%s/schedule.xlsx", a), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

		f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
		require.NoError(t, err)
		defer f.Close()
		v, err := f.GetCellValue("Timetable", "B3")
		require.NoError(t, err)
		assert.Equal(t, "Math\nAnna Ivanova", v)
	})

	t.Run("png", func(t *testing.T) {
		w := s.do(t, http.MethodGet, s.url("/classrooms/%s/schedule.png", a), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		_, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
		assert.NoError(t, err)
	})
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Handler{logger: zaptest.NewLogger(t)}

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", model.NewFieldError("day", "unknown day"), http.StatusBadRequest},
		{"conflict", &model.ConflictError{ConflictingClassroomName: "Grade 1A"}, http.StatusConflict},
		{"not found", model.NewNotFound("classroom", uuid.New()), http.StatusNotFound},
		{"lock timeout", model.Persistence("acquire slot lock", model.ErrLockTimeout), http.StatusServiceUnavailable},
		{"persistence", model.Persistence("write slot", errors.New("connection reset")), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			h.respondError(c, tt.err)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}
