package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"weekly-menu/internal/domain"
	"weekly-menu/internal/service"
)

const maxBodyBytes = 1 << 20

// filterFunc turns resource specific query arguments into listing filters.
type filterFunc func(c *gin.Context) (map[string]string, error)

type resourceHandlers[T any, P domain.DocumentPtr[T]] struct {
	h       *Handler
	svc     *service.ResourceService[T, P]
	filters filterFunc
}

// mountResource registers the CRUD routes of one owned collection on g.
func mountResource[T any, P domain.DocumentPtr[T]](h *Handler, g *gin.RouterGroup, svc *service.ResourceService[T, P], filters filterFunc) {
	r := &resourceHandlers[T, P]{h: h, svc: svc, filters: filters}
	g.GET("", r.list)
	g.POST("", r.create)
	g.GET("/:id", r.get)
	g.PUT("/:id", r.replace)
	g.PATCH("/:id", r.patch)
	g.DELETE("/:id", r.delete)
}

func (r *resourceHandlers[T, P]) list(c *gin.Context) {
	req, err := r.h.pageRequest(c)
	if err != nil {
		r.h.fail(c, err)
		return
	}
	if r.filters != nil {
		if req.Filters, err = r.filters(c); err != nil {
			r.h.fail(c, err)
			return
		}
	}
	page, err := r.svc.List(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		r.h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (r *resourceHandlers[T, P]) create(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		r.h.fail(c, err)
		return
	}
	doc, err := r.svc.Create(c.Request.Context(), currentUser(c).ID, body)
	if err != nil {
		r.h.fail(c, err)
		return
	}
	c.Header("Location", c.Request.URL.Path+"/"+doc.Metadata().ID)
	c.JSON(http.StatusCreated, doc)
}

func (r *resourceHandlers[T, P]) get(c *gin.Context) {
	doc, err := r.svc.Get(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		r.h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (r *resourceHandlers[T, P]) replace(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		r.h.fail(c, err)
		return
	}
	doc, err := r.svc.Replace(c.Request.Context(), currentUser(c).ID, c.Param("id"), body)
	if err != nil {
		r.h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (r *resourceHandlers[T, P]) patch(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		r.h.fail(c, err)
		return
	}
	doc, err := r.svc.Patch(c.Request.Context(), currentUser(c).ID, c.Param("id"), body)
	if err != nil {
		r.h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (r *resourceHandlers[T, P]) delete(c *gin.Context) {
	if err := r.svc.Delete(c.Request.Context(), currentUser(c).ID, c.Param("id")); err != nil {
		r.h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// pageRequest reads page, per_page, order_by and desc. per_page is capped at
// the configured maximum.
func (h *Handler) pageRequest(c *gin.Context) (domain.PageRequest, error) {
	req := domain.PageRequest{Page: 1, PerPage: h.opts.DefaultPageSize}

	if v, ok := c.GetQuery("page"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, domain.BadRequest("page argument must be an integer")
		}
		req.Page = n
	}
	if v, ok := c.GetQuery("per_page"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, domain.BadRequest("per_page argument must be an integer")
		}
		req.PerPage = n
	}
	if req.PerPage > h.opts.MaxPageSize {
		req.PerPage = h.opts.MaxPageSize
	}
	req.OrderBy = c.Query("order_by")
	if v, ok := c.GetQuery("desc"); ok && v != "" {
		desc, err := strconv.ParseBool(v)
		if err != nil {
			return req, domain.BadRequest("desc argument must be a boolean")
		}
		req.Desc = desc
	}
	return req, req.Validate()
}

// menuFilters supports listing the menus of a single day.
func menuFilters(c *gin.Context) (map[string]string, error) {
	day := c.Query("day")
	if day == "" {
		return nil, nil
	}
	if _, err := time.Parse(domain.MenuDateLayout, day); err != nil {
		return nil, domain.BadRequest(fmt.Sprintf("invalid day parameter supplied, day must be in the form %s", domain.MenuDateLayout))
	}
	return map[string]string{"date": day}, nil
}

func readBody(c *gin.Context) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domain.InvalidPayload(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		}
		return nil, fmt.Errorf("read request body: %w", err)
	}
	return body, nil
}
