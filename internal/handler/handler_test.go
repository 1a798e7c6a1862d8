package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storyboard-backend/internal/auth"
	"storyboard-backend/internal/database"
	"storyboard-backend/internal/editor"
	"storyboard-backend/internal/export"
	"storyboard-backend/internal/library"
	"storyboard-backend/internal/model"
	"storyboard-backend/internal/render"
	"storyboard-backend/internal/service"
	"storyboard-backend/internal/storage"
)

type recordingNotifier struct {
	mu     sync.Mutex
	states []editor.State
}

func (n *recordingNotifier) Broadcast(_ string, state editor.State) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.states = append(n.states, state)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.states)
}

type stubRenderer struct {
	res *render.Result
	err error
}

func (s *stubRenderer) Render(context.Context, *export.Document) (*render.Result, error) {
	return s.res, s.err
}

type testEnv struct {
	app      *fiber.App
	hub      *editor.Hub
	lib      *library.Library
	notifier *recordingNotifier
	renderer *stubRenderer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	hub := editor.NewHub(nil)
	lib := library.New(library.Samples())
	notifier := &recordingNotifier{}
	renderer := &stubRenderer{res: &render.Result{VideoURL: "/rendered_video.mp4", Logs: "done"}}
	local, err := storage.NewLocalStore(t.TempDir(), "/api/images/", 32, nil)
	require.NoError(t, err)

	sh := NewStoryboardHandler(hub, lib, auth.NewJWTManager("secret", time.Hour), notifier, nil)
	status := render.NewMemoryStatus()
	eh := NewExportHandler(hub, export.NewExporter(), nil, render.NewService(renderer, nil, status, nil), status, nil)
	ah := NewAssetHandler(lib, local, local, nil)

	app := fiber.New()
	app.Post("/sb", sh.Create)
	app.Get("/sb/:id", sh.Get)
	app.Delete("/sb/:id", sh.Close)
	app.Post("/sb/:id/stages", sh.AddStage)
	app.Post("/sb/:id/stages/duplicate", sh.DuplicateStage)
	app.Delete("/sb/:id/stages/:stageId", sh.DeleteStage)
	app.Put("/sb/:id/stages/:stageId/activate", sh.ActivateStage)
	app.Put("/sb/:id/stages/:stageId/position", sh.MoveStage)
	app.Put("/sb/:id/stages/:stageId", sh.RenameStage)
	app.Post("/sb/:id/placements", sh.Place)
	app.Patch("/sb/:id/stages/:stageId/placements/:placedId", sh.PatchPlacement)
	app.Delete("/sb/:id/stages/:stageId/placements/:placedId", sh.RemovePlacement)
	app.Put("/sb/:id/selection", sh.Select)
	app.Delete("/sb/:id/selection", sh.ClearSelection)
	app.Delete("/sb/:id/selection/placement", sh.DeleteSelected)
	app.Post("/sb/:id/selection/rotate", sh.Rotate)
	app.Put("/sb/:id/selection/animation", sh.SetAnimation)
	app.Post("/sb/:id/selection/front", sh.BringToFront)
	app.Post("/sb/:id/gestures/drag", sh.BeginDrag)
	app.Post("/sb/:id/gestures/resize", sh.BeginResize)
	app.Post("/sb/:id/gestures/move", sh.Move)
	app.Delete("/sb/:id/gestures", sh.EndGesture)
	app.Get("/sb/:id/export", eh.Export)
	app.Get("/sb/:id/exports", eh.ListExports)
	app.Post("/sb/:id/render", eh.Render)
	app.Get("/sb/:id/render", eh.RenderStatus)
	app.Get("/assets", ah.List)
	app.Post("/assets", ah.Upload)
	app.Delete("/assets/:id", ah.Delete)
	app.Get("/images/thumbs/:filename", ah.Thumbnail)
	app.Get("/images/:filename", ah.Image)

	return &testEnv{app: app, hub: hub, lib: lib, notifier: notifier, renderer: renderer}
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (env *testEnv) create(t *testing.T) CreateStoryboardResponse {
	t.Helper()
	resp := env.do(t, "POST", "/sb", nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return decode[CreateStoryboardResponse](t, resp)
}

func TestCreateAndGet(t *testing.T) {
	env := newTestEnv(t)
	created := env.create(t)

	assert.NotEmpty(t, created.Token)
	require.Len(t, created.Storyboard.Stages, 1)
	assert.Equal(t, "Initial", created.Storyboard.Stages[0].Name)

	resp := env.do(t, "GET", "/sb/"+created.Storyboard.ID, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, "GET", "/sb/missing", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = env.do(t, "DELETE", "/sb/"+created.Storyboard.ID, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, env.hub.Len())
}

func TestPlaceDragResizeRotate(t *testing.T) {
	env := newTestEnv(t)
	id := env.create(t).Storyboard.ID
	base := "/sb/" + id

	resp := env.do(t, "POST", base+"/placements", PlaceRequest{AssetID: "asset-1"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	placed := decode[PlaceResponse](t, resp)
	p := placed.Placement
	assert.Equal(t, 120.0, p.X)
	assert.Equal(t, 260.0, p.Y)
	assert.Equal(t, 120.0, p.Width)
	assert.Equal(t, p.ID, placed.SelectedID)
	assert.Equal(t, model.AnimationFadeIn, p.Animation)

	// drag to the right edge: grabbed at (130,270), offset (10,10)
	resp = env.do(t, "POST", base+"/gestures/drag", DragRequest{PlacedID: p.ID, PointerRequest: PointerRequest{X: 130, Y: 270}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = env.do(t, "POST", base+"/gestures/move", PointerRequest{X: 500, Y: 270})
	moved := decode[MoveResponse](t, resp)
	require.True(t, moved.Active)
	assert.Equal(t, 240.0, moved.Placement.X)
	assert.Equal(t, 260.0, moved.Placement.Y)
	env.do(t, "DELETE", base+"/gestures", nil)

	resp = env.do(t, "POST", base+"/gestures/move", PointerRequest{X: 0, Y: 0})
	assert.False(t, decode[MoveResponse](t, resp).Active)

	// se corner resize +60 on x
	resp = env.do(t, "POST", base+"/gestures/resize", ResizeRequest{Corner: "se", PointerRequest: PointerRequest{X: 360, Y: 380}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = env.do(t, "POST", base+"/gestures/move", PointerRequest{X: 420, Y: 380})
	moved = decode[MoveResponse](t, resp)
	assert.Equal(t, 180.0, moved.Placement.Width)
	assert.Equal(t, 180.0, moved.Placement.Height)
	env.do(t, "DELETE", base+"/gestures", nil)

	resp = env.do(t, "POST", base+"/selection/rotate", nil)
	state := decode[editor.State](t, resp)
	assert.Equal(t, 45, state.Storyboard.Stages[0].Placements[0].Rotation)

	assert.GreaterOrEqual(t, env.notifier.count(), 5)
}

func TestPlace_Errors(t *testing.T) {
	env := newTestEnv(t)
	base := "/sb/" + env.create(t).Storyboard.ID

	resp := env.do(t, "POST", base+"/placements", PlaceRequest{AssetID: "asset-nope"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = env.do(t, "POST", base+"/placements", PlaceRequest{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestPatchAndRemove(t *testing.T) {
	env := newTestEnv(t)
	created := env.create(t)
	base := "/sb/" + created.Storyboard.ID
	stageID := created.Storyboard.ActiveStageID

	p := decode[PlaceResponse](t, env.do(t, "POST", base+"/placements", PlaceRequest{AssetID: "asset-2"})).Placement
	path := base + "/stages/" + stageID + "/placements/" + p.ID

	resp := env.do(t, "PATCH", path, map[string]any{"x": 10, "animationStyle": "wipe_reveal"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	got := decode[editor.State](t, resp).Storyboard.Stages[0].Placements[0]
	assert.Equal(t, 10.0, got.X)
	assert.Equal(t, model.AnimationWipeReveal, got.Animation)

	resp = env.do(t, "PATCH", path, map[string]any{"width": -5})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// unknown ids are a silent no-op
	resp = env.do(t, "PATCH", base+"/stages/"+stageID+"/placements/ghost", map[string]any{"x": 1})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, "DELETE", path, nil)
	state := decode[editor.State](t, resp)
	assert.Empty(t, state.Storyboard.Stages[0].Placements)
	assert.Empty(t, state.SelectedID)
}

func TestSelectionOps(t *testing.T) {
	env := newTestEnv(t)
	base := "/sb/" + env.create(t).Storyboard.ID

	resp := env.do(t, "POST", base+"/selection/rotate", nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	a := decode[PlaceResponse](t, env.do(t, "POST", base+"/placements", PlaceRequest{AssetID: "asset-1"})).Placement
	b := decode[PlaceResponse](t, env.do(t, "POST", base+"/placements", PlaceRequest{AssetID: "asset-2"})).Placement

	resp = env.do(t, "PUT", base+"/selection", SelectRequest{PlacedID: a.ID})
	assert.Equal(t, a.ID, decode[editor.State](t, resp).SelectedID)

	resp = env.do(t, "PUT", base+"/selection/animation", AnimationRequest{AnimationStyle: "bounce"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp = env.do(t, "PUT", base+"/selection/animation", AnimationRequest{AnimationStyle: "scale_up"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, "POST", base+"/selection/front", nil)
	state := decode[editor.State](t, resp)
	placements := state.Storyboard.Stages[0].Placements
	assert.Greater(t, placements[0].LayerOrder, placements[1].LayerOrder)
	assert.Equal(t, model.AnimationScaleUp, placements[0].Animation)

	resp = env.do(t, "DELETE", base+"/selection", nil)
	assert.Empty(t, decode[editor.State](t, resp).SelectedID)

	env.do(t, "PUT", base+"/selection", SelectRequest{PlacedID: b.ID})
	resp = env.do(t, "DELETE", base+"/selection/placement", nil)
	state = decode[editor.State](t, resp)
	require.Len(t, state.Storyboard.Stages[0].Placements, 1)
	assert.Equal(t, a.ID, state.Storyboard.Stages[0].Placements[0].ID)
}

func TestStageOps(t *testing.T) {
	env := newTestEnv(t)
	created := env.create(t)
	base := "/sb/" + created.Storyboard.ID
	initial := created.Storyboard.ActiveStageID

	// last stage cannot be deleted
	resp := env.do(t, "DELETE", base+"/stages/"+initial, nil)
	del := decode[DeleteStageResponse](t, resp)
	assert.False(t, del.Deleted)
	assert.Len(t, del.Storyboard.Stages, 1)

	resp = env.do(t, "POST", base+"/stages", nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	state := decode[editor.State](t, resp)
	require.Len(t, state.Storyboard.Stages, 2)
	second := state.Storyboard.Stages[1]
	assert.Equal(t, "Stage 2", second.Name)
	assert.Equal(t, second.ID, state.Storyboard.ActiveStageID)

	resp = env.do(t, "PUT", base+"/stages/"+second.ID, RenameStageRequest{Name: "Finale"})
	assert.Equal(t, "Finale", decode[editor.State](t, resp).Storyboard.Stages[1].Name)

	resp = env.do(t, "PUT", base+"/stages/"+second.ID, RenameStageRequest{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, "PUT", base+"/stages/"+second.ID+"/position", MoveStageRequest{Index: 0})
	assert.Equal(t, second.ID, decode[editor.State](t, resp).Storyboard.Stages[0].ID)

	resp = env.do(t, "PUT", base+"/stages/"+initial+"/activate", nil)
	assert.Equal(t, initial, decode[editor.State](t, resp).Storyboard.ActiveStageID)

	resp = env.do(t, "POST", base+"/stages/duplicate", nil)
	state = decode[editor.State](t, resp)
	require.Len(t, state.Storyboard.Stages, 3)
	assert.Equal(t, "Initial (copy)", state.Storyboard.Stages[2].Name)

	resp = env.do(t, "DELETE", base+"/stages/"+second.ID, nil)
	del = decode[DeleteStageResponse](t, resp)
	assert.True(t, del.Deleted)
	assert.Len(t, del.Storyboard.Stages, 2)
}

func TestExportDownload(t *testing.T) {
	env := newTestEnv(t)
	base := "/sb/" + env.create(t).Storyboard.ID
	env.do(t, "POST", base+"/placements", PlaceRequest{AssetID: "asset-1"})

	resp := env.do(t, "GET", base+"/export", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Regexp(t, `attachment; filename="storyboard-export-\d+\.json"`, resp.Header.Get("Content-Disposition"))

	doc, err := export.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "1.0", doc.Version)
	require.Len(t, doc.Stages[0].Assets, 1)
	assert.Nil(t, doc.Stages[0].Assets[0].AnimationStyle)

	resp = env.do(t, "GET", base+"/exports", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestRender(t *testing.T) {
	env := newTestEnv(t)
	base := "/sb/" + env.create(t).Storyboard.ID

	resp := env.do(t, "GET", base+"/render", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = env.do(t, "POST", base+"/render", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	out := decode[RenderResponse](t, resp)
	assert.True(t, out.Success)
	assert.Regexp(t, `^/rendered_video\.mp4\?t=\d+$`, out.VideoURL)
	assert.Equal(t, "done", out.Logs)

	env.renderer.err = errors.New("ffmpeg missing")
	resp = env.do(t, "POST", base+"/render", nil)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	out = decode[RenderResponse](t, resp)
	assert.False(t, out.Success)
	assert.Equal(t, "ffmpeg missing", out.Error)

	// editing state is untouched by a failed render
	resp = env.do(t, "GET", base, nil)
	assert.Len(t, decode[editor.State](t, resp).Storyboard.Stages, 1)
}

type busyLocker struct{ busy bool }

func (l *busyLocker) TryLock(context.Context, string) (func(), bool, error) {
	if l.busy {
		return nil, false, nil
	}
	return func() {}, true, nil
}

func TestRender_ArchivesOnlyRenderedDocuments(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	archive := service.NewExportArchive(db)

	hub := editor.NewHub(nil)
	e := hub.Create()
	locker := &busyLocker{busy: true}
	renderer := &stubRenderer{res: &render.Result{VideoURL: "/rendered_video.mp4"}}
	eh := NewExportHandler(hub, export.NewExporter(), archive, render.NewService(renderer, locker, nil, nil), nil, nil)

	app := fiber.New()
	app.Post("/sb/:id/render", eh.Render)

	post := func() int {
		resp, err := app.Test(httptest.NewRequest("POST", "/sb/"+e.ID()+"/render", nil), -1)
		require.NoError(t, err)
		return resp.StatusCode
	}
	count := func() int {
		records, err := archive.List(context.Background(), e.ID(), 0)
		require.NoError(t, err)
		return len(records)
	}

	assert.Equal(t, fiber.StatusConflict, post())
	assert.Equal(t, 0, count())

	locker.busy = false
	renderer.err = errors.New("ffmpeg missing")
	assert.Equal(t, fiber.StatusBadGateway, post())
	assert.Equal(t, 0, count())

	renderer.err = nil
	assert.Equal(t, fiber.StatusOK, post())
	records, err := archive.List(context.Background(), e.ID(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.ExportPurposeRender, records[0].Purpose)
}

func pngUpload(t *testing.T, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/assets", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestAssetUploadAndServe(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 64))))

	resp, err := env.app.Test(pngUpload(t, "my cat.png", buf.Bytes()), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	up := decode[UploadResponse](t, resp)
	assert.True(t, up.Success)
	assert.Equal(t, "my-cat.png", up.Filename)
	assert.Equal(t, "/api/images/my-cat.png", up.URL)
	assert.Equal(t, "my cat", up.Asset.DisplayName)
	assert.Equal(t, 7, env.lib.Len())

	resp = env.do(t, "GET", "/images/my-cat.png", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	served, _ := io.ReadAll(resp.Body)
	assert.Equal(t, buf.Bytes(), served)

	assert.Equal(t, "/api/images/thumbs/my-cat.png", up.Asset.ThumbnailURL)
	resp = env.do(t, "GET", "/images/thumbs/my-cat.png", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, "GET", "/images/missing.png", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = env.app.Test(pngUpload(t, "notes.png", []byte("plain text")), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 7, env.lib.Len())

	req := httptest.NewRequest("POST", "/assets", nil)
	resp, err = env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAssetDeleteKeepsPlacements(t *testing.T) {
	env := newTestEnv(t)
	base := "/sb/" + env.create(t).Storyboard.ID
	env.do(t, "POST", base+"/placements", PlaceRequest{AssetID: "asset-3"})

	resp := env.do(t, "DELETE", "/assets/asset-3", nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp = env.do(t, "DELETE", "/assets/asset-3", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	assets := decode[[]model.Asset](t, env.do(t, "GET", "/assets", nil))
	assert.Len(t, assets, 5)

	state := decode[editor.State](t, env.do(t, "GET", base, nil))
	require.Len(t, state.Storyboard.Stages[0].Placements, 1)
	assert.Equal(t, "puppy.jpg", state.Storyboard.Stages[0].Placements[0].Filename)
}
