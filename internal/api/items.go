package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/erazemk/inventaris/internal/imaging"
	"github.com/erazemk/inventaris/internal/model"
)

// ItemsHandler handles item CRUD endpoints.
type ItemsHandler struct {
	Items  ItemStore
	Logger *zap.Logger
}

type itemResponse struct {
	*model.Item
	Message string `json:"message"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Items.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		respondStoreError(w, r, h.Logger, err, "Failed to fetch items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	item, err := h.Items.Get(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, h.Logger, err, "Failed to fetch item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeItem(w, r)
	if !ok {
		return
	}

	item, err := h.Items.Create(r.Context(), fields)
	if err != nil {
		respondStoreError(w, r, h.Logger, err, "Failed to create item")
		return
	}

	h.Logger.Info("item created", zap.Int64("id", item.ID), zap.String("name", item.Name))
	jsonResponse(w, http.StatusCreated, itemResponse{Item: item, Message: "Item created successfully"})
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	fields, ok := decodeItem(w, r)
	if !ok {
		return
	}

	item, err := h.Items.Update(r.Context(), id, fields)
	if err != nil {
		respondStoreError(w, r, h.Logger, err, "Failed to update item")
		return
	}

	h.Logger.Info("item updated", zap.Int64("id", item.ID))
	jsonResponse(w, http.StatusOK, itemResponse{Item: item, Message: "Item updated successfully"})
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	if err := h.Items.Delete(r.Context(), id); err != nil {
		respondStoreError(w, r, h.Logger, err, "Failed to delete item")
		return
	}

	h.Logger.Info("item deleted", zap.Int64("id", id))
	jsonResponse(w, http.StatusOK, messageResponse{Message: "Item deleted successfully"})
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	// Leave room for the multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+64<<10)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, http.StatusRequestEntityTooLarge, "Image must be at most 5 MB")
			return
		}
		jsonError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "Image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Normalize(file)
	switch {
	case errors.Is(err, imaging.ErrTooLarge):
		jsonError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case errors.Is(err, imaging.ErrUnsupported):
		jsonError(w, http.StatusBadRequest, "Image must be JPEG or PNG")
		return
	case err != nil:
		h.Logger.Error("processing image", zap.Error(err), requestID(r))
		jsonError(w, http.StatusInternalServerError, "Failed to process image")
		return
	}

	if err := h.Items.SetImage(r.Context(), id, photo.Data, photo.MIME); err != nil {
		respondStoreError(w, r, h.Logger, err, "Failed to save image")
		return
	}

	h.Logger.Info("item image uploaded", zap.Int64("id", id), zap.Int("bytes", len(photo.Data)))
	jsonResponse(w, http.StatusOK, messageResponse{Message: "Image uploaded"})
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	data, mime, err := h.Items.Image(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, h.Logger, err, "Failed to fetch image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid item id")
		return 0, false
	}
	return id, true
}

func decodeItem(w http.ResponseWriter, r *http.Request) (model.ItemFields, bool) {
	var in model.ItemInput
	if err := decodeJSON(w, r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid request body")
		return model.ItemFields{}, false
	}
	fields, err := in.Fields()
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return model.ItemFields{}, false
	}
	return fields, true
}
