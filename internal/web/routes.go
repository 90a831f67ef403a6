package web

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/rollcall/internal/web/handlers"
)

func (s *Server) setupRoutes(deps Deps) {
	saveTimeout := time.Duration(s.config.Web.SaveTimeoutSec) * time.Second

	studentsHandler := handlers.NewStudentsHandler(deps.Students, deps.Recognizer)
	attendanceHandler := handlers.NewAttendanceHandler(deps.Students, deps.Attendance, deps.Recognizer, deps.Guardian, saveTimeout)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Roster
		r.Get("/students", studentsHandler.List)
		r.Post("/students", studentsHandler.Create)
		r.Get("/students/{id}", studentsHandler.Get)
		r.Delete("/students/{id}", studentsHandler.Delete)
		r.Post("/students/{id}/enroll", studentsHandler.Enroll)
		r.Delete("/students/{id}/enroll", studentsHandler.Unenroll)
		r.Post("/students/identify", studentsHandler.Identify)

		// Attendance
		r.Post("/attendance/take", attendanceHandler.Take)
		r.Get("/attendance", attendanceHandler.ListClass)
		r.Put("/attendance/students/{id}", attendanceHandler.Override)
		r.Get("/students/{id}/attendance", attendanceHandler.ListStudent)
	})
}
