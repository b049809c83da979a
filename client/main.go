// 演示客户端：加入对局后随机游走，抢到座位或对局结束时打印事件
package main

import (
	"encoding/binary"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
)

const (
	MsgTypeHeartbeat     = 1
	MsgTypeJoin          = 101
	MsgTypeMove          = 102
	MsgTypeUpdatePlayers = 301
	MsgTypeGameStarted   = 302
	MsgTypeSeatReached   = 303
	MsgTypeGameOver      = 304
	MsgTypeReset         = 305
)

func msgName(msgID uint16) string {
	switch msgID {
	case MsgTypeHeartbeat:
		return "heartbeat"
	case MsgTypeUpdatePlayers:
		return "updatePlayers"
	case MsgTypeGameStarted:
		return "gameStarted"
	case MsgTypeSeatReached:
		return "seatReached"
	case MsgTypeGameOver:
		return "gameOver"
	case MsgTypeReset:
		return "reset"
	default:
		return "unknown"
	}
}

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, data []byte) error {
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func main() {
	addr := flag.String("addr", "localhost:8080", "server address")
	name := flag.String("name", "", "player name, empty for a server-assigned default")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
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
			log.Printf("<- RECV %s (ID: %d): %s", msgName(msgID), msgID, string(data))
		}
	}()

	// 加入对局
	joinData, _ := json.Marshal(map[string]string{"name": *name})
	if err := send(c, MsgTypeJoin, joinData); err != nil {
		log.Println("Write error:", err)
		return
	}
	log.Println("-> SENT: join")

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()
	// 随机游走，步长控制在一个身位以内
	walk := time.NewTicker(200 * time.Millisecond)
	defer walk.Stop()

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
		case <-heartbeat.C:
			if err := send(c, MsgTypeHeartbeat, nil); err != nil {
				log.Println("Write error:", err)
				return
			}
		case <-walk.C:
			move := map[string]float64{
				"moveX": rand.Float64()*20 - 10,
				"moveY": rand.Float64()*20 - 10,
			}
			moveData, _ := json.Marshal(move)
			if err := send(c, MsgTypeMove, moveData); err != nil {
				log.Println("Write error:", err)
				return
			}
		}
	}
}
