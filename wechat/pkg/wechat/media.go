package wechat

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"

	"wxadapter/tools/httpclient"
)

const uploadPath = "/cgi-bin/media/upload"

type uploadResponse struct {
	Type         string `json:"type"`
	MediaID      string `json:"media_id"`
	ThumbMediaID string `json:"thumb_media_id"`
	CreatedAt    int64  `json:"created_at"`
}

// UploadTemporaryMedia 下载远程文件后上传为临时素材，返回 media id
func (c *Client) UploadTemporaryMedia(ctx context.Context, mediaType, mediaURL string) (string, error) {
	data, status, err := httpclient.RequestC(ctx, c.httpClient, http.MethodGet, mediaURL, nil, map[string]string{})
	if err != nil {
		return "", fmt.Errorf("failed to download media: %w", err)
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("failed to download media: status=%d", status)
	}
	return c.UploadMedia(ctx, mediaType, fileName(mediaURL, mediaType), data)
}

// UploadMedia 以 multipart 表单字段 media 上传文件内容
func (c *Client) UploadMedia(ctx context.Context, mediaType, filename string, data []byte) (string, error) {
	token, err := c.GetAccessToken(ctx, false)
	if err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("media", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	q := url.Values{}
	q.Set("access_token", token)
	q.Set("type", mediaType)
	headers := map[string]string{"Content-Type": w.FormDataContentType()}

	c.logger.Debug("Uploading %s media %s (%d bytes)", mediaType, filename, len(data))
	body, status, err := httpclient.RequestC(ctx, c.httpClient, http.MethodPost, c.baseURL+uploadPath+"?"+q.Encode(), &buf, headers)
	if err != nil {
		return "", fmt.Errorf("failed to upload media: %w", err)
	}

	var result uploadResponse
	if err := c.decode(ctx, uploadPath, status, body, &result); err != nil {
		return "", err
	}
	id := result.MediaID
	if id == "" {
		id = result.ThumbMediaID
	}
	if id == "" {
		return "", fmt.Errorf("upload response without media_id")
	}
	c.logger.Info("Media uploaded successfully, type: %s, media_id: %s", mediaType, id)
	return id, nil
}

var defaultExt = map[string]string{
	"image": ".jpg",
	"thumb": ".jpg",
	"voice": ".mp3",
	"video": ".mp4",
}

// fileName 平台根据扩展名判断格式，URL 没有扩展名时按类型补一个
func fileName(mediaURL, mediaType string) string {
	name := "media"
	if u, err := url.Parse(mediaURL); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" && base != "" {
			name = base
		}
	}
	if path.Ext(name) == "" {
		name += defaultExt[mediaType]
	}
	return name
}
