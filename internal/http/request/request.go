// Package request разбирает тело HTTP-запроса: JSON либо multipart/form-data с файлами.
package request

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/ajg/form"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hustler-sync/internal/upload"
)

const (
	// maxMemory объём multipart-формы, удерживаемый в памяти. Остальное уходит во временные файлы.
	maxMemory = 32 << 20
	// formFieldsAllowance запас на текстовые поля и заголовки частей формы.
	formFieldsAllowance = 1 << 20
	// MaxMultipartBody предельный размер multipart-тела: фото профиля и MaxImages изображений.
	MaxMultipartBody = (upload.MaxImages+1)*upload.MaxFileSize + formFieldsAllowance
)

// ErrBadBody тело запроса не удалось разобрать.
var ErrBadBody = errors.New("invalid request body")

// IsMultipart сообщает, пришёл ли запрос как multipart/form-data.
func IsMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// Bind заполняет dst из JSON-тела или из полей multipart-формы (по тегам form).
// Multipart-тело больше MaxMultipartBody отклоняется во время чтения.
func Bind(r *http.Request, dst any) error {
	if !IsMultipart(r) {
		if err := render.DecodeJSON(r.Body, dst); err != nil {
			return fmt.Errorf("%w: %v", ErrBadBody, err)
		}
		return nil
	}

	r.Body = http.MaxBytesReader(nil, r.Body, MaxMultipartBody)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return fmt.Errorf("%w: %v", ErrBadBody, err)
	}
	values := url.Values{}
	for key, vs := range r.MultipartForm.Value {
		if len(vs) > 0 && vs[0] != "" {
			values[key] = vs
		}
	}
	dec := form.NewDecoder(nil)
	dec.IgnoreUnknownKeys(true)
	if err := dec.DecodeValues(dst, values); err != nil {
		return fmt.Errorf("%w: %v", ErrBadBody, err)
	}
	return nil
}

// Files возвращает файлы поля field multipart-формы. Для прочих запросов возвращает nil.
// Количество файлов ограничено upload.MaxImages.
func Files(r *http.Request, field string) ([]*multipart.FileHeader, error) {
	if r.MultipartForm == nil || r.MultipartForm.File == nil {
		return nil, nil
	}
	files := r.MultipartForm.File[field]
	if len(files) > upload.MaxImages {
		return nil, fmt.Errorf("field %s: at most %d files allowed", field, upload.MaxImages)
	}
	return files, nil
}

// File возвращает первый файл поля field либо nil.
func File(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil || r.MultipartForm.File == nil {
		return nil
	}
	if files := r.MultipartForm.File[field]; len(files) > 0 {
		return files[0]
	}
	return nil
}
