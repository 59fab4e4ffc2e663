package main

import (
	"errors"
	"log"
	"net/http"

	"lms/src/common"
	"lms/src/models"
	"lms/src/types"
	"lms/src/utils"

	"github.com/gin-gonic/gin"
)

func paymentHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/payments/initialize", func(ctx *gin.Context) {
			var body types.InitializePaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			link, reference, err := utils.CreateGatewayCheckout(ctx, body.CourseID)
			if err != nil {
				log.Printf("error on checkout: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "could not initialize payment"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"link": link, "reference": reference})
		}).
		POST("/payments/verify", func(ctx *gin.Context) {
			var body types.VerifyPaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			reference := body.Reference
			if reference == "" && body.ProviderRef != "" {
				txn, err := common.GetTransactionByProviderRef(body.ProviderRef)
				if err != nil {
					ctx.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
					return
				}
				reference = txn.Reference
			}
			if reference == "" {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "reference or provider_ref is required"})
				return
			}
			userId := ctx.GetUint("id")
			out, err := common.VerifyAndSettle(ctx, reference)
			if err != nil {
				if errors.Is(err, common.ErrUnknownTransaction) {
					log.Printf("[Verify] Unknown reference [%s] requested by user %d\n", reference, userId)
					ctx.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
					return
				}
				log.Printf("[Verify] Error verifying [%s]: %s\n", reference, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			if out.Transaction.UserID != userId {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
				return
			}
			ctx.JSON(http.StatusOK, verifyResponse(out, true))
		}).
		GET("/payments/transactions/:reference", func(ctx *gin.Context) {
			reference := ctx.Params.ByName("reference")
			txn, err := common.GetTransaction(reference)
			if err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
				return
			}
			if txn.UserID != ctx.GetUint("id") {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": types.APIResponseTransaction{
				Reference: txn.Reference,
				CourseID:  txn.CourseID,
				Amount:    txn.Amount,
				Currency:  txn.Currency,
				Status:    string(txn.Status),
				SettledAt: txn.SettledAt,
				CreatedAt: &txn.CreatedAt,
			}})
		})
	return g
}

// publicPaymentRoutes serves the redirect landing page before the
// session is confirmed. It reports status only; amounts and customer
// details stay behind auth.
func publicPaymentRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/payments/verify-public", func(ctx *gin.Context) {
		var body types.VerifyPaymentRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if body.Reference == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "reference is required"})
			return
		}
		out, err := common.VerifyAndSettle(ctx, body.Reference)
		if err != nil {
			if errors.Is(err, common.ErrUnknownTransaction) {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
				return
			}
			log.Printf("[VerifyPublic] Error verifying [%s]: %s\n", body.Reference, err.Error())
			ctx.Status(http.StatusInternalServerError)
			return
		}
		ctx.JSON(http.StatusOK, verifyResponse(out, false))
	})
	return apiv1
}

// verifyResponse maps a settlement outcome onto the two user-visible
// failure messages. Mismatch detail never leaves the server.
func verifyResponse(out *common.VerifyOutput, withEnrollment bool) gin.H {
	res := gin.H{"status": string(out.Transaction.Status)}
	switch out.Outcome {
	case types.VERIFY_PENDING:
		res["message"] = "we couldn't confirm your payment yet — retry in a moment"
	case types.VERIFY_FAILED, types.VERIFY_MISMATCH:
		res["message"] = "this payment could not be completed"
	}
	if withEnrollment && out.Enrollment != nil {
		res["enrollment"] = enrollmentResponse(out.Enrollment)
	}
	return res
}

func enrollmentResponse(e *models.Enrollment) types.APIResponseEnrollment {
	return types.APIResponseEnrollment{
		ID:          e.ID.String(),
		CourseID:    e.CourseID,
		Status:      string(e.Status),
		ActivatedAt: e.ActivatedAt,
	}
}
