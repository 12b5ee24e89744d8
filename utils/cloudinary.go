package utils

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

var cld *cloudinary.Cloudinary

// InitCloudinary initializes the Cloudinary connection used for condition photos
func InitCloudinary() error {
	var err error

	cloudName := os.Getenv("CLOUDINARY_CLOUD_NAME")
	apiKey := os.Getenv("CLOUDINARY_API_KEY")
	apiSecret := os.Getenv("CLOUDINARY_API_SECRET")

	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return fmt.Errorf("the Cloudinary environment variables are not defined")
	}

	cld, err = cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return fmt.Errorf("error initializing Cloudinary: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = cld.Admin.Ping(ctx)
	if err != nil {
		return fmt.Errorf("error verifying the Cloudinary connection: %v", err)
	}

	LogSuccess("Cloudinary initialized and connection verified")
	return nil
}

func boolPointer(b bool) *bool {
	return &b
}

func isValidImageType(filename string) bool {
	validExtensions := []string{".jpg", ".jpeg", ".png", ".heic", ".webp"}
	lowerFilename := strings.ToLower(filename)

	for _, ext := range validExtensions {
		if strings.HasSuffix(lowerFilename, ext) {
			return true
		}
	}
	return false
}

// UploadConditionPhoto uploads a tracking photo and returns its secure URL
// and the storage public id (kept so the entry can be deleted later).
func UploadConditionPhoto(file *multipart.FileHeader, sessionID string) (string, string, error) {
	if !isValidImageType(file.Filename) {
		return "", "", fmt.Errorf("unsupported image format, use JPG, PNG, HEIC or WEBP")
	}

	// 10MB cap, same as the mobile client enforces
	if file.Size > 10*1024*1024 {
		return "", "", fmt.Errorf("image too large, maximum 10MB allowed")
	}

	if cld == nil {
		if err := InitCloudinary(); err != nil {
			return "", "", err
		}
	}

	src, err := file.Open()
	if err != nil {
		return "", "", fmt.Errorf("error opening the file: %v", err)
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	publicID := fmt.Sprintf("condition_%s_%d", sessionID, time.Now().Unix())

	uploadParams := uploader.UploadParams{
		Folder:         "condition_photos",
		PublicID:       publicID,
		UseFilename:    boolPointer(false),
		UniqueFilename: boolPointer(true),
		Overwrite:      boolPointer(false),
		ResourceType:   "image",
	}

	uploadResult, err := cld.Upload.Upload(ctx, src, uploadParams)
	if err != nil {
		return "", "", fmt.Errorf("error uploading to Cloudinary: %v", err)
	}

	return uploadResult.SecureURL, uploadResult.PublicID, nil
}
