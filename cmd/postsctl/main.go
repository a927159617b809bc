package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"Postboard/internal/client"
	"Postboard/internal/core/posts"
	"Postboard/internal/messaging"
)

// postsctl is a command-line client for the posts API
//
// Usage:
//
//	postsctl --token $(gentoken --user u1) create --text "hello"
//	postsctl list
//	postsctl watch --nats nats://localhost:4222
func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "postsctl",
		Usage: "talk to a Postboard server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Usage:   "server base URL",
				Value:   "http://localhost:5000",
				EnvVars: []string{"POSTBOARD_URL"},
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "bearer token for write operations",
				EnvVars: []string{"POSTBOARD_TOKEN"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "test",
				Usage: "check the posts API is up",
				Action: func(c *cli.Context) error {
					msg, err := newClient(c).Test(c.Context)
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, msg)
					return nil
				},
			},
			{
				Name:  "whoami",
				Usage: "show the identity carried by --token",
				Action: func(c *cli.Context) error {
					cl := newClient(c)
					return printJSON(c, cl.Session().State())
				},
			},
			{
				Name:  "list",
				Usage: "list posts, newest first",
				Action: func(c *cli.Context) error {
					list, err := newClient(c).ListPosts(c.Context)
					if err != nil {
						return err
					}
					return printJSON(c, list)
				},
			},
			{
				Name:      "get",
				Usage:     "show one post",
				ArgsUsage: "POST_ID",
				Action: func(c *cli.Context) error {
					id, err := arg(c, 0, "POST_ID")
					if err != nil {
						return err
					}
					post, err := newClient(c).GetPost(c.Context, id)
					if err != nil {
						return err
					}
					return printJSON(c, post)
				},
			},
			{
				Name:  "create",
				Usage: "create a post",
				Flags: inputFlags(),
				Action: func(c *cli.Context) error {
					post, err := newClient(c).CreatePost(c.Context, input(c))
					if err != nil {
						return err
					}
					return printJSON(c, post)
				},
			},
			{
				Name:      "delete",
				Usage:     "delete one of your posts",
				ArgsUsage: "POST_ID",
				Action: func(c *cli.Context) error {
					id, err := arg(c, 0, "POST_ID")
					if err != nil {
						return err
					}
					if err := newClient(c).DeletePost(c.Context, id); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "deleted", id)
					return nil
				},
			},
			{
				Name:      "like",
				Usage:     "like a post",
				ArgsUsage: "POST_ID",
				Action: func(c *cli.Context) error {
					id, err := arg(c, 0, "POST_ID")
					if err != nil {
						return err
					}
					return printPost(c)(newClient(c).LikePost(c.Context, id))
				},
			},
			{
				Name:      "unlike",
				Usage:     "remove your like from a post",
				ArgsUsage: "POST_ID",
				Action: func(c *cli.Context) error {
					id, err := arg(c, 0, "POST_ID")
					if err != nil {
						return err
					}
					return printPost(c)(newClient(c).UnlikePost(c.Context, id))
				},
			},
			{
				Name:      "comment",
				Usage:     "comment on a post",
				ArgsUsage: "POST_ID",
				Flags:     inputFlags(),
				Action: func(c *cli.Context) error {
					id, err := arg(c, 0, "POST_ID")
					if err != nil {
						return err
					}
					return printPost(c)(newClient(c).AddComment(c.Context, id, input(c)))
				},
			},
			{
				Name:      "uncomment",
				Usage:     "remove a comment from a post",
				ArgsUsage: "POST_ID COMMENT_ID",
				Action: func(c *cli.Context) error {
					id, err := arg(c, 0, "POST_ID")
					if err != nil {
						return err
					}
					commentID, err := arg(c, 1, "COMMENT_ID")
					if err != nil {
						return err
					}
					return printPost(c)(newClient(c).RemoveComment(c.Context, id, commentID))
				},
			},
			{
				Name:  "watch",
				Usage: "print post events as the server publishes them",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "nats",
						Usage:   "NATS server URL",
						Value:   "nats://localhost:4222",
						EnvVars: []string{"NATS_URL"},
					},
				},
				Action: watch,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newClient(c *cli.Context) *client.Client {
	cl := client.New(c.String("url"), nil)
	if token := c.String("token"); token != "" {
		if _, err := cl.Login(token); err != nil {
			log.Printf("Ignoring unreadable token: %v", err)
		}
	}
	return cl
}

func inputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "text", Usage: "body text", Required: true},
		&cli.StringFlag{Name: "name", Usage: "author display name"},
		&cli.StringFlag{Name: "avatar", Usage: "author avatar URL"},
	}
}

func input(c *cli.Context) posts.PostInput {
	return posts.PostInput{
		Text:   c.String("text"),
		Name:   c.String("name"),
		Avatar: c.String("avatar"),
	}
}

func arg(c *cli.Context, i int, name string) (string, error) {
	v := c.Args().Get(i)
	if v == "" {
		return "", fmt.Errorf("missing %s argument", name)
	}
	return v, nil
}

func printPost(c *cli.Context) func(*posts.Post, error) error {
	return func(post *posts.Post, err error) error {
		if err != nil {
			return err
		}
		return printJSON(c, post)
	}
}

func printJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func watch(c *cli.Context) error {
	conn, err := messaging.Connect(c.String("nats"), 3, time.Second)
	if err != nil {
		return err
	}
	defer conn.Close()

	sub, err := messaging.Subscribe(conn, func(e posts.Event) {
		line := fmt.Sprintf("%s %-20s post=%s user=%s", e.OccurredAt.Format(time.RFC3339), e.Type, e.PostID, e.UserID)
		if e.CommentID != "" {
			line += " comment=" + e.CommentID
		}
		fmt.Fprintln(c.App.Writer, line)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
	case <-c.Context.Done():
	}
	return nil
}
