package main

import (
	"errors"
	"log"
	"net/http"

	"lms/src/db"
	"lms/src/models"
	"lms/src/types"
	"lms/src/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func guestAuthRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	guest := apiv1.Group("/auth")
	guest.
		POST("/login", func(ctx *gin.Context) {
			var body types.LoginRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			gdb := db.GetDb()
			var user models.User
			if err := gdb.
				Model(&models.User{}).
				Where(&models.User{Email: body.Email}).
				First(&user).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.Status(http.StatusBadRequest)
				return
			}
			token, err := utils.GenerateJWT(user.Email, user.ID)
			if err != nil {
				log.Printf("Error generating token for user [%d]: %s\n", user.ID, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"token": token})
		}).
		POST("/register", func(ctx *gin.Context) {
			var body struct {
				Email string `json:"email" binding:"required,email"`
				Name  string `json:"name" binding:"required"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			user := models.User{Email: body.Email, Name: body.Name}
			gdb := db.GetDb()
			if err := gdb.Create(&user).Error; err != nil {
				log.Printf("Error creating user: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "could not register user"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"id": user.ID})
		})
	return guest
}
