// A small interactive client for exercising the game server by hand. It
// starts a match, prints every push, and accepts answers from stdin.
package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	MsgTypeStartMatch   = 101
	MsgTypeAbandonMatch = 103
	MsgTypeSelectOption = 201
	MsgTypePauseRound   = 202
	MsgTypeUnpauseRound = 203
	MsgTypeReplayTarget = 204

	MsgTypeRoundStart  = 301
	MsgTypeRoundReady  = 303
	MsgTypeRoundResult = 304
	MsgTypeMatchEnd    = 306
)

// send frames and sends a message to the game server.
func send(c *websocket.Conn, msgID uint16, data []byte) error {
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func main() {
	host := flag.String("host", "localhost:8080", "game server address")
	userID := flag.Int64("user", 1, "user ID")
	levelID := flag.Int64("level", 1, "level ID")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *host, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if len(message) < 4 {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			data := message[4:]

			switch msgID {
			case MsgTypeRoundStart:
				var push struct {
					Round   int      `json:"round"`
					Total   int      `json:"totalRounds"`
					Options []string `json:"options"`
				}
				json.Unmarshal(data, &push)
				log.Printf("Round %d/%d, options: %v", push.Round, push.Total, push.Options)
			case MsgTypeRoundReady:
				log.Println("Listen done. Type an option number (0-based) and press Enter.")
			case MsgTypeRoundResult:
				var push struct {
					Correct bool `json:"correct"`
				}
				json.Unmarshal(data, &push)
				if push.Correct {
					log.Println("Correct!")
				} else {
					log.Println("Wrong.")
				}
			case MsgTypeMatchEnd:
				log.Printf("Match over: %s", string(data))
			default:
				log.Printf("<- RECV (ID: %d): %s", msgID, string(data))
			}
		}
	}()

	log.Printf("Starting match: user %d, level %d", *userID, *levelID)
	startReq, _ := json.Marshal(map[string]int64{"userId": *userID, "levelId": *levelID})
	if err := send(c, MsgTypeStartMatch, startReq); err != nil {
		log.Println("Write error:", err)
		return
	}

	log.Println("Commands: <number> to answer, 'replay', 'pause', 'resume', 'quit'.")

	// Write loop
	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		default:
			text, _ := reader.ReadString('\n')
			text = strings.TrimSpace(text)

			switch {
			case text == "":
				continue
			case text == "quit":
				send(c, MsgTypeAbandonMatch, []byte{})
				return
			case text == "replay":
				send(c, MsgTypeReplayTarget, []byte{})
			case text == "pause":
				send(c, MsgTypePauseRound, []byte{})
			case text == "resume":
				send(c, MsgTypeUnpauseRound, []byte{})
			default:
				index, err := strconv.Atoi(text)
				if err != nil {
					log.Printf("Unknown command: %q", text)
					continue
				}
				answer, _ := json.Marshal(map[string]int{"index": index})
				if err := send(c, MsgTypeSelectOption, answer); err != nil {
					log.Println("Write error:", err)
					return
				}
			}
		}
	}
}
