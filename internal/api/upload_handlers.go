package api

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/technosupport/arena-watch/internal/analysis"
	"github.com/technosupport/arena-watch/internal/media"
)

type uploadError struct {
	Name  string `json:"name"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type uploadsResponse struct {
	Uploads []analysis.Upload `json:"uploads"`
	Errors  []uploadError     `json:"errors,omitempty"`
}

// createUploads streams every multipart "file" part, keeping only the head
// for sniffing and the byte count. Content is discarded.
func (h *Handler) createUploads(maxFile int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxFile*maxFilesPerRequest)
		mr, err := r.MultipartReader()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "expected multipart/form-data")
			return
		}

		resp := uploadsResponse{Uploads: []analysis.Upload{}}
		var firstErr error
		files := 0
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				var tooBig *http.MaxBytesError
				if errors.As(err, &tooBig) {
					writeError(w, http.StatusRequestEntityTooLarge, "too_large", "request body too large")
					return
				}
				writeError(w, http.StatusBadRequest, "invalid_request", "malformed multipart body")
				return
			}
			if part.FormName() != "file" {
				part.Close()
				continue
			}
			files++
			if files > maxFilesPerRequest {
				part.Close()
				writeError(w, http.StatusBadRequest, "too_many_files", "too many files in one request")
				return
			}

			f, err := readPart(part, maxFile)
			part.Close()
			if err != nil {
				var tooBig *http.MaxBytesError
				if errors.As(err, &tooBig) {
					writeError(w, http.StatusRequestEntityTooLarge, "too_large", "request body too large")
					return
				}
				writeError(w, http.StatusBadRequest, "invalid_request", "failed to read file part")
				return
			}

			u, err := h.Uploads.Submit(r.Context(), f)
			if err != nil {
				log.Printf("[API] Upload %q rejected: %v", f.Name, err)
				if firstErr == nil {
					firstErr = err
				}
				resp.Errors = append(resp.Errors, uploadError{Name: f.Name, Code: analysis.Code(err), Error: err.Error()})
				continue
			}
			resp.Uploads = append(resp.Uploads, u)
		}

		if files == 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "no file parts")
			return
		}
		if len(resp.Uploads) == 0 {
			writeJSON(w, analysisStatus(firstErr), resp)
			return
		}
		writeJSON(w, http.StatusAccepted, resp)
	}
}

// readPart reads at most maxFile+1 bytes so oversize files are reported by
// the validator without buffering them.
func readPart(part *multipart.Part, maxFile int64) (analysis.File, error) {
	f := analysis.File{
		Name:        part.FileName(),
		ContentType: part.Header.Get("Content-Type"),
	}

	head := make([]byte, media.SniffLen)
	n, err := io.ReadFull(part, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return f, err
	}
	f.Head = head[:n]

	rest, err := io.Copy(io.Discard, io.LimitReader(part, maxFile+1-int64(n)))
	if err != nil {
		return f, err
	}
	f.Size = int64(n) + rest
	return f, nil
}

func (h *Handler) ListUploads(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"uploads": h.Uploads.List()})
}

// GetUpload returns the handle. A failed analysis is reported with the
// status its error code maps to.
func (h *Handler) GetUpload(w http.ResponseWriter, r *http.Request) {
	u, ok := h.Uploads.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "upload not found")
		return
	}
	if u.Status == analysis.StatusFailed {
		writeJSON(w, analysisStatus(analysis.ErrorForCode(u.ErrorCode)), map[string]interface{}{
			"code":   u.ErrorCode,
			"error":  u.Error,
			"upload": u,
		})
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) RemoveUpload(w http.ResponseWriter, r *http.Request) {
	h.Uploads.Remove(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}
