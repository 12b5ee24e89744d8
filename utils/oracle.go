package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Client for the externally hosted Oracle analysis backend. All health
// reasoning lives there; this side only ships JSON over HTTP.

var (
	oracleURLEnv = "ORACLE_API_URL"

	oracleClient = &http.Client{Timeout: 60 * time.Second}
)

type OracleScanResult struct {
	Analysis   json.RawMessage `json:"analysis"`
	Confidence float64         `json:"confidence"`
	Urgency    string          `json:"urgency"`
}

type OracleDeepDiveSession struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

type OracleFlashResult struct {
	Response string `json:"response"`
	Category string `json:"category"`
	Urgency  string `json:"urgency"`
}

type OracleChatResult struct {
	Reply string `json:"reply"`
}

func OracleQuickScan(userID string, bodyPart string, formData map[string]interface{}) (*OracleScanResult, error) {
	payload := map[string]interface{}{
		"user_id":   userID,
		"body_part": bodyPart,
		"form_data": formData,
	}
	var result OracleScanResult
	if err := postOracle("/api/quick-scan", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func OracleDeepDiveStart(userID string, bodyPart string, formData map[string]interface{}) (*OracleDeepDiveSession, error) {
	payload := map[string]interface{}{
		"user_id":   userID,
		"body_part": bodyPart,
		"form_data": formData,
	}
	var result OracleDeepDiveSession
	if err := postOracle("/api/deep-dive/start", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func OracleDeepDiveComplete(sessionID string, answers map[string]interface{}) (*OracleScanResult, error) {
	payload := map[string]interface{}{
		"session_id": sessionID,
		"answers":    answers,
	}
	var result OracleScanResult
	if err := postOracle("/api/deep-dive/complete", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func OracleFlashAssessment(userID string, query string) (*OracleFlashResult, error) {
	payload := map[string]interface{}{
		"user_id": userID,
		"query":   query,
	}
	var result OracleFlashResult
	if err := postOracle("/api/flash-assessment", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func OracleChat(userID string, conversationID string, message string) (*OracleChatResult, error) {
	payload := map[string]interface{}{
		"user_id":         userID,
		"conversation_id": conversationID,
		"message":         message,
	}
	var result OracleChatResult
	if err := postOracle("/api/chat", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func postOracle(path string, payload interface{}, out interface{}) error {
	baseURL := os.Getenv(oracleURLEnv)
	if baseURL == "" {
		return fmt.Errorf("ORACLE_API_URL is required in environment variables")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error encoding the request: %v", err)
	}

	req, err := http.NewRequest("POST", baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("error creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := oracleClient.Do(req)
	if err != nil {
		return fmt.Errorf("error calling the analysis backend: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading the response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("analysis backend answered %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("error decoding the response: %v", err)
	}

	return nil
}
