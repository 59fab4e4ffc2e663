package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"lms/src/db"
	"lms/src/middlewares"
	"lms/src/models"
	"lms/src/types"
	"lms/src/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func courseHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/me/enrollments", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			gdb := db.GetDb()
			var enrollments []models.Enrollment
			if err := gdb.
				Model(&models.Enrollment{}).
				Preload("Course").
				Where("user_id = ?", userId).
				Find(&enrollments).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": enrollments})
		})

	admin := g.Group("")
	admin.Use(middlewares.AdminOnly)
	admin.POST("/courses", func(ctx *gin.Context) {
		var body types.CreateCourseRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		id, err := utils.CreateNewCourse(ctx, &body)
		if err != nil {
			log.Printf("Error creating Course: %s\n", err.Error())
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusCreated, gin.H{"id": id})
	})
	return g
}

func publicCourseRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.
		GET("/courses", func(ctx *gin.Context) {
			gdb := db.GetDb()
			var courses []models.Course
			if err := gdb.
				Model(&models.Course{}).
				Where("status = ?", types.COURSE_PUBLISHED).
				Find(&courses).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": courses})
		}).
		GET("/courses/:id", func(ctx *gin.Context) {
			idParam := ctx.Params.ByName("id")
			atoi, err := strconv.Atoi(idParam)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			gdb := db.GetDb()
			var course models.Course
			if err := gdb.
				Model(&models.Course{}).
				Where("id = ? AND status = ?", uint(atoi), types.COURSE_PUBLISHED).
				First(&course).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": course})
		})
	return apiv1
}
