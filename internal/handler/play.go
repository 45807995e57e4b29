package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-booking/internal/booking"
	"github.com/iliyamo/theatre-booking/internal/logger"
	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/repository"
	"github.com/iliyamo/theatre-booking/internal/utils"
)

// Play posters are stored below MediaRoot in this directory and served from
// MediaURL.
const (
	MediaURL      = "/media"
	playUploadDir = "uploads/plays"
	maxImageBytes = 5 << 20
	sniffLen      = 512
)

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// PlayHandler serves /v1/plays.
type PlayHandler struct {
	Plays     *repository.PlayRepo
	MediaRoot string
}

func NewPlayHandler(p *repository.PlayRepo, mediaRoot string) *PlayHandler {
	return &PlayHandler{Plays: p, MediaRoot: mediaRoot}
}

type playReq struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Actors      *[]uint64 `json:"actors"`
	Genres      *[]uint64 `json:"genres"`
}

// List supports ?actors=1,2 ?genres=3 and ?title=.
func (h *PlayHandler) List(c echo.Context) error {
	actors, err := parseIDList(c.QueryParam("actors"))
	if err != nil {
		return renderError(c, booking.FieldError("actors", "expected a comma separated list of ids"))
	}
	genres, err := parseIDList(c.QueryParam("genres"))
	if err != nil {
		return renderError(c, booking.FieldError("genres", "expected a comma separated list of ids"))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	plays, err := h.Plays.List(ctx, repository.PlayFilter{ActorIDs: actors, GenreIDs: genres, Title: c.QueryParam("title")})
	if err != nil {
		return renderError(c, err)
	}
	out := make([]any, 0, len(plays))
	for _, p := range plays {
		out = append(out, renderPlay(p, viewList))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PlayHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return renderError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Plays.GetByID(ctx, id)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, renderPlay(*p, viewDetail))
}

func (h *PlayHandler) Create(c echo.Context) error {
	var req playReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	p := model.Play{}
	if err := applyPlay(&p, req, false); err != nil {
		return renderError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Plays.Create(ctx, &p); err != nil {
		return renderError(c, playWriteError(err))
	}
	created, err := h.Plays.GetByID(ctx, p.ID)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusCreated, renderPlay(*created, viewDetail))
}

func (h *PlayHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return renderError(c, err)
	}
	var req playReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Plays.GetByID(ctx, id)
	if err != nil {
		return renderError(c, err)
	}
	if err := applyPlay(p, req, c.Request().Method == http.MethodPatch); err != nil {
		return renderError(c, err)
	}
	if err := h.Plays.Update(ctx, p); err != nil {
		return renderError(c, playWriteError(err))
	}
	updated, err := h.Plays.GetByID(ctx, id)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, renderPlay(*updated, viewDetail))
}

func (h *PlayHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return renderError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Plays.Delete(ctx, id); err != nil {
		return renderError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadImage stores the multipart field "image" as the play's poster.
func (h *PlayHandler) UploadImage(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return renderError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Plays.GetByID(ctx, id)
	if err != nil {
		return renderError(c, err)
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return renderError(c, booking.FieldError("image", "no file was submitted"))
	}
	if fh.Size > maxImageBytes {
		return renderError(c, booking.FieldError("image", "file too large"))
	}
	src, err := fh.Open()
	if err != nil {
		return renderError(c, err)
	}
	defer src.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return renderError(c, err)
	}
	head = head[:n]
	ext, ok := imageExt[http.DetectContentType(head)]
	if !ok {
		return renderError(c, booking.FieldError("image", "upload a valid image"))
	}

	name := utils.Slugify(p.Title) + "-" + uuid.NewString() + ext
	dir := filepath.Join(h.MediaRoot, filepath.FromSlash(playUploadDir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return renderError(c, err)
	}
	dstPath := filepath.Join(dir, name)
	if err := writeFile(dstPath, io.MultiReader(bytes.NewReader(head), src)); err != nil {
		return renderError(c, err)
	}

	public := path.Join(MediaURL, playUploadDir, name)
	if err := h.Plays.SetImage(ctx, id, public); err != nil {
		_ = os.Remove(dstPath)
		return renderError(c, err)
	}
	if p.Image != nil {
		h.removeMedia(c, *p.Image)
	}
	return c.JSON(http.StatusOK, playImageView{ID: id, Image: &public})
}

func (h *PlayHandler) removeMedia(c echo.Context, public string) {
	rel := strings.TrimPrefix(public, MediaURL+"/")
	if rel == public || strings.Contains(rel, "..") {
		return
	}
	if err := os.Remove(filepath.Join(h.MediaRoot, filepath.FromSlash(rel))); err != nil && !os.IsNotExist(err) {
		logger.FromContext(c.Request().Context()).Warn().Err(err).Str("path", public).Msg("old poster not removed")
	}
}

func writeFile(dst string, r io.Reader) error {
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(dst)
		return err
	}
	return f.Close()
}

func applyPlay(p *model.Play, req playReq, partial bool) error {
	v := booking.NewValidationError()
	if req.Title != nil {
		p.Title = strings.TrimSpace(*req.Title)
		checkText(v, "title", p.Title, 63)
	} else if !partial {
		v.Add("title", "this field is required")
	}
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
		checkText(v, "description", p.Description, 0)
	} else if !partial {
		v.Add("description", "this field is required")
	}
	if req.Actors != nil {
		p.ActorIDs = *req.Actors
	} else if !partial {
		p.ActorIDs = nil
	}
	if req.Genres != nil {
		p.GenreIDs = *req.Genres
	} else if !partial {
		p.GenreIDs = nil
	}
	return v.OrNil()
}

func playWriteError(err error) error {
	if errors.Is(err, repository.ErrInvalidReference) {
		return booking.FieldError("non_field_errors", "unknown actor or genre id")
	}
	return duplicateAs(err, "title", "play with this title already exists")
}
