package utils

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"lms/src/common"
	"lms/src/db"
	"lms/src/lib"
	"lms/src/models"
	"lms/src/types"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

func IsProd() bool {
	return os.Getenv("API_ENV") == "production"
}

// CreateGatewayCheckout runs the checkout handshake for one course
// purchase. The reference is generated locally before anything touches
// the network and is never regenerated on retry, so one logical attempt
// maps to at most one provider-side transaction. The pending
// Transaction row is written before the gateway call for the same
// reason: a crash between the two leaves a sweepable pending row, never
// an untracked charge.
func CreateGatewayCheckout(ctx *gin.Context, courseId uint) (link string, reference string, err error) {
	userId := ctx.GetUint("id")
	email := ctx.GetString("email")
	name := ctx.GetString("name")

	var course models.Course
	gdb := db.GetDb()
	if err := gdb.
		Model(&models.Course{}).
		Where("id = ? AND status = ?", courseId, types.COURSE_PUBLISHED).
		First(&course).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", fmt.Errorf("course %d is not available for purchase", courseId)
		}
		return "", "", err
	}

	reference = uuid.NewString()
	txn, err := common.CreateTransaction(reference, course.ID, userId, course.Price, course.Currency)
	if err != nil {
		log.Printf("Error while creating Transaction: %s\n", err.Error())
		return "", "", err
	}

	gc := lib.GetGatewayClient()
	session, err := gc.CreateCheckout(ctx, &lib.CheckoutParams{
		Reference:     reference,
		Amount:        course.Price,
		Currency:      course.Currency,
		CustomerEmail: email,
		CustomerName:  name,
		RedirectURL:   fmt.Sprintf("%s/checkout/callback", os.Getenv("APP_HOST")),
		Meta: types.Metadata{
			"course_id": fmt.Sprint(course.ID),
			"user_id":   fmt.Sprint(userId),
		},
	})
	if err != nil {
		log.Printf("Error creating checkout for [%s]: %s\n", reference, err.Error())
		return "", "", err
	}

	lib.CacheReference(ctx, reference, txn.ID.String())

	return session.Link, reference, nil
}

// CreateNewCourse persists a catalog entry. Slugs come from the title;
// a collision gets the creating user's id appended.
func CreateNewCourse(ctx *gin.Context, params *types.CreateCourseRequestBody) (uint, error) {
	userId := ctx.GetUint("id")
	status := types.COURSE_DRAFT
	if params.Publish {
		status = types.COURSE_PUBLISHED
	}
	course := models.Course{
		Title:       params.Title,
		Slug:        slug.Make(params.Title),
		Description: &params.Description,
		Price:       params.Price,
		Currency:    params.Currency,
		Status:      status,
		CreatedBy:   userId,
	}
	gdb := db.GetDb()
	err := gdb.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.
			Model(&models.Course{}).
			Where("slug = ?", course.Slug).
			Count(&count).
			Error; err != nil {
			return err
		}
		if count > 0 {
			course.Slug = fmt.Sprintf("%s-%d", course.Slug, userId)
		}
		return tx.Create(&course).Error
	})
	if err != nil {
		return 0, err
	}
	return course.ID, nil
}

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

func GenerateJWT(email string, userId uint) (string, error) {
	claims := types.Claims{
		Username: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(userId),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	return token.SignedString(jwtKey)
}
