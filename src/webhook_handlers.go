package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"lms/src/common"
	"lms/src/lib"
	"lms/src/types"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
)

// gatewayWebhookRoute receives provider-pushed notifications. The
// payload is only ever used to decide which transaction to re-verify
// against the gateway; its own status and amount fields are never
// ground truth. That keeps a forged-but-signed or replayed payload from
// settling anything the gateway won't confirm.
func gatewayWebhookRoute(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/webhook/flutterwave", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		whsecret := os.Getenv("FLW_WEBHOOK_SECRET")
		if !lib.VerifySignature(payload, ctx.GetHeader("verif-hash"), whsecret) {
			log.Printf("Error verifying webhook signature\n")
			ctx.Status(http.StatusUnauthorized)
			return
		}
		if !gjson.ValidBytes(payload) {
			ctx.Status(http.StatusBadRequest)
			return
		}

		event := gjson.GetBytes(payload, "event").String()
		reference := gjson.GetBytes(payload, "data.tx_ref").String()
		if reference == "" {
			log.Printf("[Webhook] Event %q carried no tx_ref\n", event)
			ctx.Status(http.StatusBadRequest)
			return
		}
		log.Printf("[Webhook] %s [%s]\n", event, reference)

		// Dedup key: provider event id when present, else (reference, status).
		eventKey := gjson.GetBytes(payload, "id").String()
		if eventKey == "" {
			eventKey = fmt.Sprintf("%s:%s", reference, gjson.GetBytes(payload, "data.status").String())
		}
		var body types.JSONB
		if err := json.Unmarshal(payload, &body); err != nil {
			ctx.Status(http.StatusBadRequest)
			return
		}
		inserted, err := common.RecordWebhookEvent(eventKey, reference, body)
		if err != nil {
			log.Printf("[Webhook] Error recording event [%s]: %s\n", eventKey, err.Error())
			ctx.Status(http.StatusInternalServerError)
			return
		}
		if !inserted {
			// Already seen. Acknowledge so the provider stops retrying,
			// reprocess nothing.
			ctx.Status(http.StatusOK)
			return
		}

		switch event {
		case "charge.refunded":
			// Refunds are confirmed with the gateway like everything else.
			result, err := lib.GetGatewayClient().Verify(ctx, reference)
			if err != nil {
				log.Printf("[Webhook] Could not confirm refund for [%s]: %s\n", reference, err.Error())
				ctx.Status(http.StatusOK)
				return
			}
			if result.Status == "refunded" {
				if _, err := common.RefundTransaction(reference); err != nil {
					log.Printf("[Webhook] Error processing refund for [%s]: %s\n", reference, err.Error())
					ctx.Status(http.StatusInternalServerError)
					return
				}
			}
		default:
			if _, err := common.VerifyAndSettle(ctx, reference); err != nil {
				if errors.Is(err, common.ErrUnknownTransaction) {
					log.Printf("[Webhook] Unknown reference [%s]; not initialized here\n", reference)
					ctx.Status(http.StatusNotFound)
					return
				}
				log.Printf("[Webhook] Error settling [%s]: %s\n", reference, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
		}
		ctx.Status(http.StatusOK)
	})
	return apiv1
}
