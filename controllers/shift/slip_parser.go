package shift

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"google.golang.org/genai"

	"mora-delivery/logger"
	"mora-delivery/types"
)

// LoadSheetResult is the structured data extracted from a photographed depot
// load sheet, used to prefill the planning form.
type LoadSheetResult struct {
	TotalCod         int   `json:"total_cod"`
	TotalNonCod      int   `json:"total_non_cod"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

// ParseLoadSheet handles the depot load sheet image upload and extracts the
// declared package totals using Gemini Vision API
func (sc *ShiftController) ParseLoadSheet(c *fiber.Ctx) error {
	startTime := time.Now()

	// Get uploaded file
	file, err := c.FormFile("image")
	if err != nil {
		logger.Error("No image file provided for load sheet parsing", err)

		return sc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: "No image file provided",
			Status:  fiber.StatusBadRequest,
		})
	}

	// Validate file type
	mimeType := file.Header.Get("Content-Type")
	if !isValidImageType(mimeType) {
		logger.Error(fmt.Sprintf("Invalid load sheet file type %s", mimeType),
			fmt.Errorf("invalid mime type: %s", mimeType))

		return sc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: "Invalid file type. Only JPEG, JPG, PNG, and WebP files are allowed",
			Status:  fiber.StatusBadRequest,
		})
	}

	// Validate file size (max 10MB)
	maxSize := int64(10 * 1024 * 1024) // 10MB
	if file.Size > maxSize {
		logger.Error(fmt.Sprintf("Load sheet file size %d exceeds max %d", file.Size, maxSize),
			fmt.Errorf("file size %d exceeds max %d", file.Size, maxSize))

		return sc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: "File size too large. Maximum size is 10MB",
			Status:  fiber.StatusBadRequest,
		})
	}

	src, err := file.Open()
	if err != nil {
		logger.Error("Failed to open uploaded load sheet", err)

		return sc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Message: "Failed to process uploaded file",
			Status:  fiber.StatusInternalServerError,
		})
	}
	defer src.Close()

	fileBytes, err := io.ReadAll(src)
	if err != nil {
		logger.Error("Failed to read load sheet content", err)

		return sc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Message: "Failed to read file content",
			Status:  fiber.StatusInternalServerError,
		})
	}

	result, err := parseLoadSheetWithGemini(fileBytes, mimeType)
	if err != nil {
		logger.Error("Failed to parse load sheet with Gemini", err)

		return sc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Message: "Failed to parse load sheet",
			Status:  fiber.StatusInternalServerError,
			Data:    map[string]interface{}{"error": err.Error()},
		})
	}

	result.ProcessingTimeMs = time.Since(startTime).Milliseconds()

	logger.Success(fmt.Sprintf("Load sheet parsed in %dms: %d COD, %d non-COD",
		result.ProcessingTimeMs, result.TotalCod, result.TotalNonCod))

	return sc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Load sheet parsed successfully",
		Data:    result,
	})
}

// parseLoadSheetWithGemini uses Gemini Vision API to extract the package
// totals from a photographed depot load sheet
func parseLoadSheetWithGemini(imageBytes []byte, mimeType string) (*LoadSheetResult, error) {
	ctx := context.Background()

	// Get API key from environment
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("API_KEY not found in environment variables")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	prompt := `Analyze this courier depot load sheet image and extract the package totals. Return ONLY valid JSON.

			The sheet lists the packages assigned to one courier for today, split into cash-on-delivery (COD) and prepaid (non-COD) counts. If a count is missing or unclear, use 0.

			Required JSON format:
			{
			"total_cod": number,       // Count of COD packages
			"total_non_cod": number    // Count of prepaid (non-COD) packages
			}`

	content := &genai.Content{
		Parts: []*genai.Part{
			&genai.Part{Text: prompt},
			&genai.Part{InlineData: &genai.Blob{
				MIMEType: mimeType,
				Data:     imageBytes,
			}},
		},
	}

	result, err := client.Models.GenerateContent(
		ctx,
		"gemini-2.5-flash-lite",
		[]*genai.Content{content},
		&genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(0.1)),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with OCR: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no content generated by OCR")
	}

	responseText := result.Candidates[0].Content.Parts[0].Text
	if responseText == "" {
		return nil, fmt.Errorf("empty response from OCR")
	}

	jsonText := extractJSONFromMarkdown(responseText)

	var parsed LoadSheetResult
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w, response: %s", err, jsonText)
	}

	return &parsed, nil
}

// extractJSONFromMarkdown extracts JSON content from markdown code blocks
func extractJSONFromMarkdown(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") && strings.HasSuffix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
		return strings.TrimSpace(text)
	}

	if strings.HasPrefix(text, "```") && strings.HasSuffix(text, "```") {
		lines := strings.Split(text, "\n")
		if len(lines) > 1 {
			return strings.Join(lines[1:len(lines)-1], "\n")
		}
	}

	return text
}

// isValidImageType checks if the provided content type is a valid image type
func isValidImageType(contentType string) bool {
	validTypes := map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/webp": true,
	}
	return validTypes[contentType]
}
