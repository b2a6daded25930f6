package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/admitd-dev/admitd/internal/models"
)

// CourseRequest represents a course create/update request
type CourseRequest struct {
	Name             string `json:"name" binding:"required"`
	ShortDescription string `json:"short_description"`
	Duration         string `json:"duration"`
	Fee              int64  `json:"fee" binding:"min=0"`
}

func (s *Server) listCourses(c *gin.Context) {
	var courses []models.Course
	if err := s.db.Order("name ASC").Find(&courses).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list courses")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, courses)
}

func (s *Server) createCourse(c *gin.Context) {
	var req CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course := &models.Course{
		Name:             req.Name,
		ShortDescription: req.ShortDescription,
		Duration:         req.Duration,
		Fee:              req.Fee,
	}
	if err := s.db.Create(course).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create course")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create course"})
		return
	}

	c.JSON(http.StatusCreated, course)
}

func (s *Server) updateCourse(c *gin.Context) {
	courseID := c.Param("id")

	var course models.Course
	if err := models.FindByID(s.db, courseID, &course); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find course")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course.Name = req.Name
	course.ShortDescription = req.ShortDescription
	course.Duration = req.Duration
	course.Fee = req.Fee

	if err := s.db.Save(&course).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update course")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update course"})
		return
	}

	c.JSON(http.StatusOK, course)
}

func (s *Server) deleteCourse(c *gin.Context) {
	courseID := c.Param("id")

	var course models.Course
	if err := models.FindByID(s.db, courseID, &course); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find course")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Delete(&course).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete course")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete course"})
		return
	}

	c.Status(http.StatusNoContent)
}
