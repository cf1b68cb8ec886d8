// Package main provides the interactive command-line Wordle client. It is a
// thin wrapper over the wire protocol and the multicast notification
// listener; all game rules live on the server.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/lorenzoDeriu/Wordle-3.0/internal/game"
	"github.com/lorenzoDeriu/Wordle-3.0/internal/notify"
	"github.com/lorenzoDeriu/Wordle-3.0/internal/protocol"
)

type client struct {
	serverAddr string
	stdin      *bufio.Scanner

	subscriber    *notify.Subscriber
	notifications []string
}

func main() {
	serverAddr := flag.String("addr", "127.0.0.1:6789", "game server address")
	multicastAddr := flag.String("multicast", "239.255.1.1:6790", "win notification multicast group")
	flag.Parse()

	c := &client{
		serverAddr: *serverAddr,
		stdin:      bufio.NewScanner(os.Stdin),
	}

	sub, err := notify.Subscribe(*multicastAddr)
	if err != nil {
		fmt.Printf("warning: cannot join notification group: %v\n", err)
	} else {
		c.subscriber = sub
		defer sub.Close()
	}

	for {
		fmt.Print("\n1) Register  2) Login  3) Exit\n> ")
		switch c.readLine() {
		case "1":
			c.register()
		case "2":
			c.login()
		case "3":
			return
		default:
			fmt.Println("unknown choice")
		}
	}
}

func (c *client) register() {
	username, password := c.readCredentials()

	conn, err := net.DialTimeout("tcp", c.serverAddr, 5*time.Second)
	if err != nil {
		fmt.Printf("cannot reach server: %v\n", err)
		return
	}
	defer conn.Close()

	if err := send(conn, protocol.RegisterRequest{Username: username, Password: password}); err != nil {
		fmt.Printf("sending registration: %v\n", err)
		return
	}
	resp, err := protocol.DecodeSimpleResponse(conn)
	if err != nil {
		fmt.Printf("reading response: %v\n", err)
		return
	}
	if _, ok := resp.(protocol.Ack); ok {
		fmt.Println("registered, you can now log in")
	} else {
		fmt.Println("registration rejected: username taken or password too short")
	}
}

func (c *client) login() {
	username, password := c.readCredentials()

	conn, err := net.DialTimeout("tcp", c.serverAddr, 5*time.Second)
	if err != nil {
		fmt.Printf("cannot reach server: %v\n", err)
		return
	}

	if err := send(conn, protocol.LoginRequest{Username: username, Password: password}); err != nil {
		fmt.Printf("sending login: %v\n", err)
		conn.Close()
		return
	}
	reader := bufio.NewReader(conn)
	resp, err := protocol.DecodeLoginResponse(reader)
	if err != nil {
		fmt.Printf("reading response: %v\n", err)
		conn.Close()
		return
	}

	ok, isOK := resp.(protocol.LoginOK)
	if !isOK {
		fmt.Println("wrong username or password")
		conn.Close()
		return
	}

	fmt.Printf("welcome %s, %d attempts left on the current word\n",
		username, game.MaxAttempts-int(ok.Attempts))
	c.playLoop(conn, reader)
	conn.Close()
}

func (c *client) playLoop(conn net.Conn, reader *bufio.Reader) {
	for {
		fmt.Print("\n1) Play  2) Share  3) Statistics  4) Notifications  5) Wait next word  6) Logout\n> ")
		switch c.readLine() {
		case "1":
			if err := c.play(conn, reader); err != nil {
				fmt.Printf("connection lost: %v\n", err)
				return
			}
		case "2":
			if err := send(conn, protocol.ShareRequest{}); err != nil {
				fmt.Printf("connection lost: %v\n", err)
				return
			}
			fmt.Println("result shared with all players")
		case "3":
			if err := c.statistics(conn, reader); err != nil {
				fmt.Printf("connection lost: %v\n", err)
				return
			}
		case "4":
			c.printNotifications()
		case "5":
			fmt.Println("waiting for the next word...")
			if err := send(conn, protocol.WaitNextWordRequest{}); err != nil {
				fmt.Printf("connection lost: %v\n", err)
				return
			}
			if err := protocol.DecodeWordChanged(reader); err != nil {
				fmt.Printf("connection lost: %v\n", err)
				return
			}
			fmt.Println("a new word is up!")
		case "6":
			_ = send(conn, protocol.LogoutRequest{})
			return
		default:
			fmt.Println("unknown choice")
		}
	}
}

func (c *client) play(conn net.Conn, reader *bufio.Reader) error {
	fmt.Printf("guess (%d letters): ", game.WordLength)
	guess := strings.ToLower(strings.TrimSpace(c.readLine()))
	if len(guess) != game.WordLength {
		fmt.Printf("the guess must be exactly %d letters\n", game.WordLength)
		return nil
	}

	if err := send(conn, protocol.PlayRequest{Guess: guess}); err != nil {
		return err
	}
	resp, err := protocol.DecodePlayResponse(reader)
	if err != nil {
		return err
	}

	switch r := resp.(type) {
	case protocol.WordChanged:
		fmt.Println("the secret word changed while you were away; guess again")
	case protocol.PlayRejected:
		fmt.Printf("no attempts left on this word; next word at %s\n", formatDeadline(r.Deadline))
	case protocol.PlayFeedback:
		fmt.Printf("  %s\n", r.Feedback)
		if r.Won {
			fmt.Printf("you guessed it! next word at %s\n", formatDeadline(r.Deadline))
		}
	}
	return nil
}

func (c *client) statistics(conn net.Conn, reader *bufio.Reader) error {
	if err := send(conn, protocol.StatisticsRequest{}); err != nil {
		return err
	}
	stats, err := protocol.DecodeStatisticsResponse(reader)
	if err != nil {
		return err
	}

	if len(stats.Records) == 0 {
		fmt.Println("no completed rounds yet")
		return nil
	}
	for i, rec := range stats.Records {
		outcome := "missed"
		if rec.Guessed {
			outcome = "guessed"
		}
		fmt.Printf("%2d. %s %q in %d attempts\n", i+1, outcome, rec.Word, rec.Attempts)
	}
	return nil
}

// printNotifications drains the subscription stream and prints everything
// received so far.
func (c *client) printNotifications() {
	if c.subscriber == nil {
		fmt.Println("notifications unavailable")
		return
	}
	for {
		select {
		case msg, ok := <-c.subscriber.Messages():
			if !ok {
				fmt.Println("notification stream closed")
				return
			}
			c.notifications = append(c.notifications, msg)
		default:
			if len(c.notifications) == 0 {
				fmt.Println("no notifications")
				return
			}
			for _, msg := range c.notifications {
				fmt.Println(msg)
			}
			return
		}
	}
}

func (c *client) readCredentials() (username, password string) {
	fmt.Print("username: ")
	username = strings.TrimSpace(c.readLine())
	fmt.Print("password: ")
	password = strings.TrimSpace(c.readLine())
	return username, password
}

func (c *client) readLine() string {
	if !c.stdin.Scan() {
		os.Exit(0)
	}
	return c.stdin.Text()
}

func send(conn net.Conn, req protocol.Request) error {
	frame, err := protocol.EncodeRequest(req)
	if err != nil {
		return err
	}
	_, err = conn.Write(frame)
	return err
}

func formatDeadline(unixMilli int64) string {
	return time.UnixMilli(unixMilli).Format("15:04:05")
}
