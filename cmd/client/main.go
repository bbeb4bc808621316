// Interactive TCP client: reads commands from stdin, sends each as one
// message and prints the decoded reply.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
)

func main() {
	server := flag.String("server", "127.0.0.1:8000", "server address (host:port)")
	flag.Parse()

	conn, err := net.Dial("tcp", *server)
	if err != nil {
		log.Fatalf("failed to connect with server: %v", err)
	}
	defer conn.Close()
	fmt.Printf("Connected to: %s\n", *server)

	scanner := bufio.NewScanner(os.Stdin)
	buf := make([]byte, 4096)
	for scanner.Scan() {
		message := scanner.Text()
		if message == "" {
			continue
		}

		if _, err := conn.Write([]byte(message)); err != nil {
			log.Fatalf("send failed: %v", err)
		}

		n, err := conn.Read(buf)
		if err != nil {
			log.Fatalf("receive failed: %v", err)
		}
		printReply(buf[:n])
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("stdin: %v", err)
	}
}

// printReply decodes the JSON reply: arrays print one line per element,
// everything else prints as-is.
func printReply(raw []byte) {
	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		for _, line := range lines {
			fmt.Println(line)
		}
		return
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		fmt.Println(s)
		return
	}
	fmt.Println(string(raw))
}
