package handler

import (
	"mime/multipart"
	"net/http"
	"sync"

	"community_hub/internal/pkg/session"
	"community_hub/internal/pkg/storage"
	"community_hub/pkg/response"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	store storage.Storage
}

func NewUploadHandler(store storage.Storage) *UploadHandler {
	return &UploadHandler{store: store}
}

// Upload 上传文件 (支持批量)
// @Summary 上传文件到对象存储 (支持批量)
// @Tags Common
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Files"
// @Param category formData string true "avatars|banners|discussions|chat"
// @Success 200 {object} response.Response{data=[]string} "URLs"
// @Router /upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Invalid form data")
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "No files uploaded")
		return
	}

	category := c.PostForm("category")
	if !storage.ValidCategory(category) {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Unknown upload category")
		return
	}

	s := session.FromGin(c)

	// 结果数组，预分配大小
	urls := make([]string, len(files))

	// 使用 WaitGroup 和 Once 控制并发并保证顺序
	var wg sync.WaitGroup
	var errOnce sync.Once
	var uploadErr error

	// 限制并发数为 5，避免过多协程
	sem := make(chan struct{}, 5)

	for i, file := range files {
		wg.Add(1)
		go func(index int, f *multipart.FileHeader) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if uploadErr != nil {
				return
			}

			url, err := h.store.Upload(f, s.UserID, category)
			if err != nil {
				errOnce.Do(func() {
					uploadErr = err
				})
				return
			}

			// 直接按索引赋值，保证顺序
			urls[index] = url
		}(i, file)
	}

	wg.Wait()

	if uploadErr != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Upload failed: "+uploadErr.Error())
		return
	}

	response.Success(c, urls)
}
