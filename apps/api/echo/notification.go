package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/notification"
	"github.com/colegiohq/backend/core/policy"
)

type notificationApi struct {
	svc  *notification.Service
	conf *core.Config
}

func registerNotificationAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	principal echo.MiddlewareFunc,
	svc *notification.Service,
	conf *core.Config,
) {
	api := notificationApi{svc: svc, conf: conf}

	// strictly personal; no permission gate beyond authentication
	ng := g.Group("/notifications", jwt, principal)
	ng.GET("", api.query)
	ng.GET("/unread-count", api.unreadCount)
	ng.POST("/:id/read", api.markRead)
	ng.POST("/read-all", api.markAllRead)
}

// Handlers

func (api *notificationApi) query(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntityNotification, policy.ActionList, policy.Record{}); err != nil {
		return err
	}

	page := bindPage(ctx, api.conf)
	notifs, total, err := api.svc.ByUser(p.UserID, page)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if notifs == nil {
		notifs = []notification.Notification{}
	}
	return respondPage(ctx, notifs, page, total)
}

func (api *notificationApi) unreadCount(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	count, err := api.svc.UnreadCount(p.UserID)
	if err != nil {
		return errors.Wrap(err, "counting unread notifications")
	}
	return respond(ctx, http.StatusOK, echo.Map{"unread": count})
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	notif, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}
	if err := policy.Allow(p, policy.EntityNotification, policy.ActionMarkRead, policy.Record{OwnerID: notif.UserID}); err != nil {
		return err
	}

	notif, err = api.svc.MarkRead(notif.ID)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, notif)
}

func (api *notificationApi) markAllRead(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.MarkAllRead(p.UserID); err != nil {
		return errors.Wrap(err, "marking notifications read")
	}
	return respond(ctx, http.StatusOK, echo.Map{"message": "all notifications marked as read"})
}
