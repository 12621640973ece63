package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/ownerlookup/cache"
	"github.com/use-agent/ownerlookup/models"
	"github.com/use-agent/ownerlookup/pipeline"
)

// Lookup returns a handler for POST /api/v1/lookup.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults.
//  2. Serve from cache when max_age allows it.
//  3. Lookuper.Lookup → owners             (records lookup_ms)
//  4. Store cacheable outcomes, return 200.
func Lookup(lk pipeline.Lookuper, cc *cache.Cache, states []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.LookupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortInvalid(c, err.Error())
			return
		}
		req.Defaults()
		if req.BusinessName == "" {
			abortInvalid(c, "business_name is blank")
			return
		}

		maxAge := time.Duration(req.MaxAge) * time.Millisecond
		cacheKey := cache.Key(req.BusinessName, states)

		// ── 2. Cache lookup ────────────────────────────────────────
		if cc != nil && maxAge > 0 {
			if cached, hit := cc.Get(cacheKey, maxAge); hit {
				c.JSON(http.StatusOK, models.LookupResponse{
					Success:      true,
					BusinessName: req.BusinessName,
					Owners:       &cached,
					CacheStatus:  "hit",
					Timing: models.TimingInfo{
						TotalMs: time.Since(totalStart).Milliseconds(),
					},
				})
				return
			}
		}

		// ── 3. Lookup ──────────────────────────────────────────────
		lookupStart := time.Now()
		owners, err := lk.Lookup(c.Request.Context(), req.BusinessName)
		lookupMs := time.Since(lookupStart).Milliseconds()

		if err != nil {
			se := asScrapeError(err)
			c.JSON(mapErrorToStatus(se), models.LookupResponse{
				Success:      false,
				BusinessName: req.BusinessName,
				Error:        se.ToDetail(),
				Timing: models.TimingInfo{
					TotalMs:  time.Since(totalStart).Milliseconds(),
					LookupMs: lookupMs,
				},
			})
			return
		}

		resp := models.LookupResponse{
			Success:      true,
			BusinessName: req.BusinessName,
			Owners:       &owners,
			Timing: models.TimingInfo{
				TotalMs:  time.Since(totalStart).Milliseconds(),
				LookupMs: lookupMs,
			},
		}

		// ── 4. Cache store ─────────────────────────────────────────
		if cc != nil && maxAge > 0 {
			cc.Set(cacheKey, owners)
			resp.CacheStatus = "miss"
		}

		c.JSON(http.StatusOK, resp)
	}
}
