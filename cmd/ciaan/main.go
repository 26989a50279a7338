// Command ciaan is an interactive terminal client for the CIAAN service.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"ciaan/app"
	"ciaan/config"
	"ciaan/models"
	"ciaan/search"
)

func main() {
	verbose := flag.Bool("v", false, "verbose request logging")
	flag.Parse()

	cfg := config.LoadConfig()
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	engine, err := app.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	reader := bufio.NewScanner(os.Stdin)
	confirm := func(prompt string) bool {
		fmt.Printf("%s [y/N] ", prompt)
		if !reader.Scan() {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(reader.Text()))
		return answer == "y" || answer == "yes"
	}
	engine.Mutations.SetConfirm(confirm)
	engine.ProfileMutations.SetConfirm(confirm)
	engine.Gate.OnRedirect(func() {
		fmt.Println("Session expired. Please log in again.")
	})

	ctx := context.Background()
	if err := engine.Start(ctx); err != nil {
		if !login(ctx, engine, reader) {
			return
		}
	}
	renderFeed(engine, "")
	repl(ctx, engine, reader)
}

func login(ctx context.Context, engine *app.App, reader *bufio.Scanner) bool {
	for {
		fmt.Print("email: ")
		if !reader.Scan() {
			return false
		}
		email := strings.TrimSpace(reader.Text())
		fmt.Print("password: ")
		if !reader.Scan() {
			return false
		}
		password := reader.Text()

		if err := engine.Login(ctx, email, password); err != nil {
			fmt.Println(engine.Gate.LastError())
			continue
		}
		return true
	}
}

func repl(ctx context.Context, engine *app.App, reader *bufio.Scanner) {
	fmt.Println(`commands: feed, page N, next, prev, like N, comments N, comment N <text>, post, edit N, delete N, search <q>, profile [N], bio <text>, logout, quit`)
	for {
		fmt.Print("> ")
		if !reader.Scan() {
			return
		}
		line := strings.TrimSpace(reader.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		switch cmd {
		case "quit", "exit":
			return
		case "feed":
			run(engine.Feed.LoadPage(ctx, currentPage(engine)))
			renderFeed(engine, "")
		case "page":
			n, _ := strconv.Atoi(rest)
			run(engine.Feed.GoToPage(ctx, n))
			renderFeed(engine, "")
		case "next":
			run(engine.Feed.GoToPage(ctx, currentPage(engine)+1))
			renderFeed(engine, "")
		case "prev":
			run(engine.Feed.GoToPage(ctx, currentPage(engine)-1))
			renderFeed(engine, "")
		case "like":
			if post, ok := nthPost(engine, rest); ok {
				run(engine.Mutations.ToggleLike(ctx, post.ID))
				renderFeed(engine, "")
			}
		case "comments":
			if post, ok := nthPost(engine, rest); ok {
				thread := engine.Comments.Thread(post.ID)
				if thread.Expanded {
					engine.Comments.Collapse(post.ID)
					fmt.Println("collapsed")
					continue
				}
				run(engine.Comments.Expand(ctx, post.ID))
				renderThread(engine, post.ID)
			}
		case "comment":
			index, text, _ := strings.Cut(rest, " ")
			if post, ok := nthPost(engine, index); ok {
				engine.Mutations.SetCommentDraft(post.ID, text)
				if _, err := engine.Mutations.AddComment(ctx, post.ID); err != nil {
					fmt.Println(err)
					continue
				}
				renderThread(engine, post.ID)
			}
		case "post":
			title := promptLine(reader, "title: ")
			content := promptLine(reader, "content: ")
			engine.Feed.OpenCreate()
			engine.Feed.SetDraft(title, content)
			if err := engine.Feed.CreatePost(ctx); err != nil {
				fmt.Println(err)
				continue
			}
			renderFeed(engine, "")
		case "edit":
			if post, ok := nthPost(engine, rest); ok {
				if !engine.Mutations.BeginEdit(post.ID) {
					continue
				}
				title := promptLine(reader, "new title: ")
				content := promptLine(reader, "new content: ")
				engine.Mutations.SetEditDraft(post.ID, title, content)
				if err := engine.Mutations.UpdatePost(ctx, post.ID); err != nil {
					fmt.Println(err)
					continue
				}
				renderFeed(engine, "")
			}
		case "delete":
			if post, ok := nthPost(engine, rest); ok {
				if err := engine.Mutations.DeletePost(ctx, post.ID); err != nil {
					fmt.Println(err)
					continue
				}
				renderFeed(engine, "")
			}
		case "search":
			renderFeed(engine, rest)
		case "profile":
			userID := ""
			if rest == "" {
				if me, ok := engine.Gate.Identity(); ok {
					userID = me.ID
				}
			} else if post, ok := nthPost(engine, rest); ok {
				userID = post.Author.ID
			}
			if userID == "" {
				continue
			}
			run(engine.Profile.Load(ctx, userID))
			renderProfile(engine)
		case "bio":
			engine.Profile.BeginEditBio()
			engine.Profile.SetBioDraft(rest)
			run(engine.Profile.UpdateBio(ctx))
			renderProfile(engine)
		case "logout":
			engine.Logout(ctx)
			fmt.Println("logged out")
			if !login(ctx, engine, reader) {
				return
			}
			renderFeed(engine, "")
		default:
			fmt.Println("unknown command:", cmd)
		}
	}
}

func run(err error) {
	if err != nil {
		fmt.Println(err)
	}
}

func currentPage(engine *app.App) int {
	return engine.Feed.Window().PageNumber
}

func nthPost(engine *app.App, arg string) (models.Post, bool) {
	n, err := strconv.Atoi(arg)
	window := engine.Feed.Window()
	if err != nil || n < 1 || n > len(window.Items) {
		fmt.Println("no such post")
		return models.Post{}, false
	}
	return window.Items[n-1], true
}

func promptLine(reader *bufio.Scanner, prompt string) string {
	fmt.Print(prompt)
	if !reader.Scan() {
		return ""
	}
	return reader.Text()
}

func renderFeed(engine *app.App, query string) {
	window := engine.Feed.Window()
	items := search.Filter(window.Items, query)
	if len(items) == 0 {
		if query != "" {
			fmt.Printf("No posts found for %q\n", query)
		} else {
			fmt.Println("No posts yet. Be the first to share something!")
		}
		return
	}

	from, to := window.Showing()
	fmt.Printf("Community Feed — showing %d-%d of %d posts\n", from, to, window.TotalPosts)
	for i, post := range items {
		marker := " "
		if engine.Feed.Liked(post.ID) {
			marker = "*"
		}
		edited := ""
		if post.Edited() {
			edited = " (updated)"
		}
		fmt.Printf("%2d. %s%s — %s\n    %s\n    [%s] %d likes, %d comments\n",
			i+1, post.Title, edited, post.Author.DisplayName(), post.Content, marker, post.LikeCount, post.CommentCount)
	}
	fmt.Println(renderPages(engine))
}

func renderPages(engine *app.App) string {
	var b strings.Builder
	window := engine.Feed.Window()
	b.WriteString("pages:")
	for _, item := range engine.Feed.PageNumbers() {
		if item.Ellipsis {
			b.WriteString(" ...")
		} else if item.Page == window.PageNumber {
			fmt.Fprintf(&b, " [%d]", item.Page)
		} else {
			fmt.Fprintf(&b, " %d", item.Page)
		}
	}
	return b.String()
}

func renderThread(engine *app.App, postID string) {
	thread := engine.Comments.Thread(postID)
	if thread.Loading {
		fmt.Println("loading comments...")
		return
	}
	if len(thread.Items) == 0 {
		fmt.Println("No comments yet.")
		return
	}
	for _, comment := range thread.Items {
		fmt.Printf("  %s: %s\n", comment.Author.DisplayName(), comment.Content)
	}
}

func renderProfile(engine *app.App) {
	if engine.Profile.NotFound() {
		fmt.Println("Profile Not Found")
		return
	}
	user, ok := engine.Profile.User()
	if !ok {
		return
	}
	fmt.Printf("%s <%s>\n", user.DisplayName(), user.EmailID)
	if user.Bio != "" {
		fmt.Println(user.Bio)
	}
	for i, post := range engine.Profile.Posts() {
		fmt.Printf("%2d. %s — %d likes, %d comments\n", i+1, post.Title, post.LikeCount, post.CommentCount)
	}
}
