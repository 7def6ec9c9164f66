/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tomoncle/teamsearch"
	"github.com/tomoncle/teamsearch/search"
	"github.com/tomoncle/teamsearch/types"
	"github.com/tomoncle/teamsearch/utils"
)

const internalErrorMessage = "internal server error"

type MemberHandler struct {
	svc          teamsearch.MemberService
	defaultLimit int
	maxLimit     int
	logger       *logrus.Logger
}

func NewMemberHandler(svc teamsearch.MemberService, defaultLimit, maxLimit int) *MemberHandler {
	return &MemberHandler{
		svc:          svc,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		logger:       utils.NewLogger("API"),
	}
}

func (h *MemberHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/members", h.Search)
	r.GET("/v2/members", h.searchPage(types.CountSimple))
	r.GET("/v3/members", h.searchPage(types.CountOptimized))
}

// memberQuery binds ages as text so that an empty parameter, as sent by a
// blank form field, leaves the bound absent instead of meaning zero.
type memberQuery struct {
	Name     string `form:"name"`
	TeamName string `form:"teamName"`
	AgeMin   string `form:"ageMin"`
	AgeMax   string `form:"ageMax"`
	Offset   *int   `form:"offset"`
	Limit    *int   `form:"limit"`
	Page     *int   `form:"page"`
	Size     *int   `form:"size"`
}

func (q memberQuery) criteria() (search.Criteria, error) {
	c := search.Criteria{Name: q.Name, TeamName: q.TeamName}
	var err error
	if c.AgeMin, err = optionalInt("ageMin", q.AgeMin); err != nil {
		return c, err
	}
	if c.AgeMax, err = optionalInt("ageMax", q.AgeMax); err != nil {
		return c, err
	}
	return c, nil
}

func optionalInt(name, raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %q is not an integer", name, raw)
	}
	return &v, nil
}

// pageRequest prefers page/size when either is given, otherwise offset/limit.
// Limits above the maximum are clamped; invalid windows are left for
// validation to reject.
func (h *MemberHandler) pageRequest(q memberQuery) types.PageRequest {
	if q.Page != nil || q.Size != nil {
		page, size := 0, h.defaultLimit
		if q.Page != nil {
			page = *q.Page
		}
		if q.Size != nil {
			size = min(*q.Size, h.maxLimit)
		}
		return types.PageOf(page, size)
	}
	offset, limit := 0, h.defaultLimit
	if q.Offset != nil {
		offset = *q.Offset
	}
	if q.Limit != nil {
		limit = min(*q.Limit, h.maxLimit)
	}
	return types.NewPageRequest(offset, limit)
}

// bind reads the query string. It reports false after answering 400.
func (h *MemberHandler) bind(c *gin.Context) (memberQuery, search.Criteria, bool) {
	var q memberQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.abort(c, http.StatusBadRequest, err.Error())
		return q, search.Criteria{}, false
	}
	criteria, err := q.criteria()
	if err != nil {
		h.abort(c, http.StatusBadRequest, err.Error())
		return q, criteria, false
	}
	return q, criteria, true
}

func (h *MemberHandler) Search(c *gin.Context) {
	_, criteria, ok := h.bind(c)
	if !ok {
		return
	}
	rows, err := h.svc.Search(c.Request.Context(), criteria)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": rows, "count": len(rows)})
}

func (h *MemberHandler) searchPage(strategy types.CountStrategy) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, criteria, ok := h.bind(c)
		if !ok {
			return
		}
		page, err := h.svc.SearchPage(c.Request.Context(), criteria, h.pageRequest(q), strategy)
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// handleError answers 400 for invalid windows. Anything else is logged and
// answered with a generic 500, keeping driver messages out of the response.
func (h *MemberHandler) handleError(c *gin.Context, err error) {
	_ = c.Error(err)
	if errors.Is(err, types.ErrInvalidPageRequest) {
		h.abort(c, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString(requestIDKey),
		"path":       c.Request.URL.Path,
		"error":      err,
	}).Error("member search failed")
	h.abort(c, http.StatusInternalServerError, internalErrorMessage)
}

func (h *MemberHandler) abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{
		"error":      msg,
		"request_id": c.GetString(requestIDKey),
	})
}
