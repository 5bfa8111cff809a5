package ws

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

func authenticate(conn *websocket.Conn, apiKey, secret string) error {
	expires := time.Now().UnixMilli() + 5_000
	payload := fmt.Sprintf("GET/realtime%d", expires)

	msg := AuthMessage{
		Op:   "auth",
		Args: []string{apiKey, fmt.Sprintf("%d", expires), sign(secret, payload)},
	}

	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("Не удалось авторизоваться: %w", err)
	}

	return nil
}

func sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
