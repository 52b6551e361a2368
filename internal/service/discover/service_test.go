package discover_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/emberhq/ember-api/internal/app"
	"github.com/emberhq/ember-api/internal/cache"
	"github.com/emberhq/ember-api/internal/config"
	"github.com/emberhq/ember-api/internal/db"
	"github.com/emberhq/ember-api/internal/middleware"
	"github.com/emberhq/ember-api/internal/service/discover"
)

func setupEnv(t *testing.T) *app.AppContext {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, dbase.AutoMigrate(db.Models()...))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return app.New(cfg, dbase, cache.NewRedisCache(cfg), logger)
}

func seedProfile(t *testing.T, appCtx *app.AppContext, email string, age int) db.User {
	t.Helper()
	dob := time.Now().AddDate(-age, 0, -1)
	user := db.User{
		Email:        email,
		PasswordHash: "x",
		Name:         email,
		DateOfBirth:  &dob,
		Active:       true,
	}
	require.NoError(t, appCtx.DB.Create(&user).Error)
	return user
}

func discoverRouter(appCtx *app.AppContext, caller db.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/discover", func(c *gin.Context) {
		c.Set("authUser", middleware.AuthUser{ID: caller.ID, Email: caller.Email})
		c.Next()
	}, discover.NewService(appCtx).GetProfiles)
	return r
}

func fetchProfiles(t *testing.T, router *gin.Engine, query string) (int, []string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/discover"+query, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		return rec.Code, nil
	}

	var resp struct {
		Data struct {
			Items []struct {
				ID string `json:"id"`
			} `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	ids := make([]string, 0, len(resp.Data.Items))
	for _, item := range resp.Data.Items {
		ids = append(ids, item.ID)
	}
	return rec.Code, ids
}

// TestDiscoverExclusions: self, already-swiped, matched and blocked users are
// all absent from the feed; an untouched candidate remains.
func TestDiscoverExclusions(t *testing.T) {
	appCtx := setupEnv(t)
	me := seedProfile(t, appCtx, "me@test.com", 30)
	swiped := seedProfile(t, appCtx, "swiped@test.com", 25)
	matched := seedProfile(t, appCtx, "matched@test.com", 26)
	blocker := seedProfile(t, appCtx, "blocker@test.com", 27)
	blockee := seedProfile(t, appCtx, "blockee@test.com", 28)
	fresh := seedProfile(t, appCtx, "fresh@test.com", 29)

	require.NoError(t, appCtx.DB.Create(&db.Swipe{ActorID: me.ID, TargetID: swiped.ID, Kind: db.SwipeKindDislike}).Error)
	one, two := db.CanonicalPair(me.ID, matched.ID)
	require.NoError(t, appCtx.DB.Create(&db.Match{UserOneID: one, UserTwoID: two}).Error)
	require.NoError(t, appCtx.DB.Create(&db.Block{BlockerID: blocker.ID, BlockedID: me.ID}).Error)
	require.NoError(t, appCtx.DB.Create(&db.Block{BlockerID: me.ID, BlockedID: blockee.ID}).Error)

	code, ids := fetchProfiles(t, discoverRouter(appCtx, me), "")
	require.Equal(t, http.StatusOK, code)
	assert.ElementsMatch(t, []string{fresh.ID}, ids)
}

// TestDiscoverLikersStayEligible: someone who liked me but whom I never
// swiped on still shows up in my feed.
func TestDiscoverLikersStayEligible(t *testing.T) {
	appCtx := setupEnv(t)
	me := seedProfile(t, appCtx, "me@test.com", 30)
	liker := seedProfile(t, appCtx, "liker@test.com", 25)

	require.NoError(t, appCtx.DB.Create(&db.Swipe{ActorID: liker.ID, TargetID: me.ID, Kind: db.SwipeKindLike}).Error)

	code, ids := fetchProfiles(t, discoverRouter(appCtx, me), "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, ids, liker.ID)
}

// TestDiscoverDefaultAgeWindow: without filters only 18-35 year olds appear.
func TestDiscoverDefaultAgeWindow(t *testing.T) {
	appCtx := setupEnv(t)
	me := seedProfile(t, appCtx, "me@test.com", 30)
	inRange := seedProfile(t, appCtx, "in@test.com", 22)
	tooOld := seedProfile(t, appCtx, "old@test.com", 50)
	noDob := db.User{Email: "nodob@test.com", PasswordHash: "x", Name: "nodob", Active: true}
	require.NoError(t, appCtx.DB.Create(&noDob).Error)

	code, ids := fetchProfiles(t, discoverRouter(appCtx, me), "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, ids, inRange.ID)
	assert.NotContains(t, ids, tooOld.ID)
	assert.NotContains(t, ids, noDob.ID)
}

func TestDiscoverCustomAgeFilter(t *testing.T) {
	appCtx := setupEnv(t)
	me := seedProfile(t, appCtx, "me@test.com", 30)
	young := seedProfile(t, appCtx, "young@test.com", 20)
	older := seedProfile(t, appCtx, "older@test.com", 45)

	code, ids := fetchProfiles(t, discoverRouter(appCtx, me), "?minAge=40&maxAge=50")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, ids, older.ID)
	assert.NotContains(t, ids, young.ID)
}

func TestDiscoverInvertedAgeRangeRejected(t *testing.T) {
	appCtx := setupEnv(t)
	me := seedProfile(t, appCtx, "me@test.com", 30)

	code, _ := fetchProfiles(t, discoverRouter(appCtx, me), "?minAge=35&maxAge=20")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDiscoverRanking(t *testing.T) {
	appCtx := setupEnv(t)
	me := seedProfile(t, appCtx, "me@test.com", 30)

	low := seedProfile(t, appCtx, "low@test.com", 25)
	high := seedProfile(t, appCtx, "high@test.com", 26)
	boosted := seedProfile(t, appCtx, "boosted@test.com", 27)

	require.NoError(t, appCtx.DB.Model(&db.User{}).Where("id = ?", low.ID).UpdateColumn("profile_score", 20).Error)
	require.NoError(t, appCtx.DB.Model(&db.User{}).Where("id = ?", high.ID).UpdateColumn("profile_score", 90).Error)
	require.NoError(t, appCtx.DB.Create(&db.Boost{UserID: boosted.ID, EndsAt: time.Now().Add(30 * time.Minute)}).Error)

	code, ids := fetchProfiles(t, discoverRouter(appCtx, me), "")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, ids, 3)
	assert.Equal(t, boosted.ID, ids[0])
	assert.Equal(t, high.ID, ids[1])
	assert.Equal(t, low.ID, ids[2])
}
