package tcp

import (
	"bufio"
	"fmt"
	"math/rand"
	"net"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/hdt3213/solodis/config"
	"github.com/hdt3213/solodis/database"
)

func startTestServer(t *testing.T) (addr string, done chan error) {
	t.Helper()
	config.Properties = &config.ServerProperties{
		Bind:         "127.0.0.1",
		MaxClients:   100,
		TickInterval: 20,
	}
	addr = fmt.Sprintf("127.0.0.1:%d", 20000+rand.Intn(10000))
	engine := database.NewStandaloneServer()
	done = make(chan error, 1)
	go func() {
		done <- ListenAndServeWithSignal(&Config{Address: addr}, engine)
	}()
	// wait until the listener answers
	for i := 0; i < 50; i++ {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			conn.Close()
			return addr, done
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("server did not start")
	return "", nil
}

func stopTestServer(t *testing.T, done chan error) {
	t.Helper()
	_ = syscall.Kill(os.Getpid(), syscall.SIGTERM)
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("server returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("server did not shut down")
	}
}

func readReply(t *testing.T, reader *bufio.Reader) string {
	t.Helper()
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if line[0] == '$' && line != "$-1\r\n" {
		body, err := reader.ReadString('\n')
		if err != nil {
			t.Fatal(err)
		}
		return line + body
	}
	return line
}

func TestServeRoundTrip(t *testing.T) {
	addr, done := startTestServer(t)
	defer stopTestServer(t, done)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)

	// a pipelined batch in a single write
	if _, err := conn.Write([]byte("*1\r\n$4\r\nPING\r\n*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n")); err != nil {
		t.Fatal(err)
	}
	if got := readReply(t, reader); got != "+PONG\r\n" {
		t.Errorf("got %q", got)
	}
	if got := readReply(t, reader); got != "$-1\r\n" {
		t.Errorf("got %q", got)
	}

	if _, err := conn.Write([]byte("*3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n")); err != nil {
		t.Fatal(err)
	}
	if got := readReply(t, reader); got != "+OK\r\n" {
		t.Errorf("got %q", got)
	}
	if _, err := conn.Write([]byte("*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n")); err != nil {
		t.Fatal(err)
	}
	if got := readReply(t, reader); got != "$3\r\nbar\r\n" {
		t.Errorf("got %q", got)
	}

	// inline command framing
	if _, err := conn.Write([]byte("PING\r\n")); err != nil {
		t.Fatal(err)
	}
	if got := readReply(t, reader); got != "+PONG\r\n" {
		t.Errorf("inline got %q", got)
	}

	// unknown commands do not close the connection
	if _, err := conn.Write([]byte("*1\r\n$7\r\nNOTACMD\r\n*1\r\n$4\r\nPING\r\n")); err != nil {
		t.Fatal(err)
	}
	if got := readReply(t, reader); got != "-ERR unknown command 'NOTACMD'\r\n" {
		t.Errorf("got %q", got)
	}
	if got := readReply(t, reader); got != "+PONG\r\n" {
		t.Errorf("got %q", got)
	}
}

func TestManyIdleConnections(t *testing.T) {
	addr, done := startTestServer(t)
	defer stopTestServer(t, done)

	idle := make([]net.Conn, 0, 50)
	defer func() {
		for _, c := range idle {
			c.Close()
		}
	}()
	for i := 0; i < 50; i++ {
		c, err := net.Dial("tcp", addr)
		if err != nil {
			t.Fatal(err)
		}
		idle = append(idle, c)
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("*1\r\n$4\r\nPING\r\n")); err != nil {
		t.Fatal(err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reader := bufio.NewReader(conn)
	if got := readReply(t, reader); got != "+PONG\r\n" {
		t.Errorf("got %q", got)
	}
}
