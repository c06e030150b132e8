package main

import (
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "auth":
		err = handleAuth(args)
	case "user":
		err = handleUser(args)
	case "project":
		err = handleProject(args)
	case "task":
		err = handleTask(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}

func handleAuth(args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: taskflow auth <register-tenant|login|me|logout>")
		return nil
	}

	switch args[0] {
	case "register-tenant":
		return registerTenant(args[1:])
	case "login":
		return login(args[1:])
	case "me":
		return whoAmI()
	case "logout":
		return logout()
	default:
		return fmt.Errorf("unknown auth command: %s", args[0])
	}
}

func handleUser(args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: taskflow user <list|create>")
		return nil
	}

	switch args[0] {
	case "list":
		return listUsers()
	case "create":
		return createUser(args[1:])
	default:
		return fmt.Errorf("unknown user command: %s", args[0])
	}
}

func handleProject(args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: taskflow project <list|create|delete>")
		return nil
	}

	switch args[0] {
	case "list":
		return listProjects()
	case "create":
		return createProject(args[1:])
	case "delete":
		return deleteProject(args[1:])
	default:
		return fmt.Errorf("unknown project command: %s", args[0])
	}
}

func handleTask(args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: taskflow task <list|create|status|update|delete>")
		return nil
	}

	switch args[0] {
	case "list":
		return listTasks(args[1:])
	case "create":
		return createTask(args[1:])
	case "status":
		return setTaskStatus(args[1:])
	case "update":
		return updateTask(args[1:])
	case "delete":
		return deleteTask(args[1:])
	default:
		return fmt.Errorf("unknown task command: %s", args[0])
	}
}

// Auth commands
func registerTenant(args []string) error {
	fs := flag.NewFlagSet("register-tenant", flag.ExitOnError)
	name := fs.String("name", "", "organization name")
	subdomain := fs.String("subdomain", "", "tenant subdomain")
	email := fs.String("email", "", "admin email")
	password := fs.String("password", "", "admin password")
	fullName := fs.String("full-name", "", "admin full name")
	fs.Parse(args)

	if *name == "" || *subdomain == "" || *email == "" || *password == "" || *fullName == "" {
		fs.PrintDefaults()
		return fmt.Errorf("name, subdomain, email, password and full-name are required")
	}

	resp, err := newAPIClient().call(http.MethodPost, "/auth/register-tenant", map[string]string{
		"tenantName":    *name,
		"subdomain":     *subdomain,
		"adminEmail":    *email,
		"adminPassword": *password,
		"adminFullName": *fullName,
	})
	if err != nil {
		return err
	}

	var out struct {
		TenantID string `json:"tenantId"`
		UserID   string `json:"userId"`
	}
	if err := resp.into(&out); err != nil {
		return err
	}
	fmt.Printf("✓ Tenant registered: %s (tenant %s)\n", *subdomain, out.TenantID)
	return nil
}

func login(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "password")
	subdomain := fs.String("tenant", "", "tenant subdomain")
	fs.Parse(args)

	if *email == "" || *password == "" || *subdomain == "" {
		fs.PrintDefaults()
		return fmt.Errorf("email, password and tenant are required")
	}

	resp, err := newAPIClient().call(http.MethodPost, "/auth/login", map[string]string{
		"email":           *email,
		"password":        *password,
		"tenantSubdomain": *subdomain,
	})
	if err != nil {
		return err
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := resp.into(&out); err != nil {
		return err
	}
	if err := saveToken(out.Token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	fmt.Printf("✓ Logged in as: %s@%s\n", *email, *subdomain)
	return nil
}

func whoAmI() error {
	resp, err := newAPIClient().call(http.MethodGet, "/auth/me", nil)
	if err != nil {
		return err
	}

	var me struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		FullName string `json:"fullName"`
		Role     string `json:"role"`
		Tenant   struct {
			ID               string `json:"id"`
			Subdomain        string `json:"subdomain"`
			SubscriptionPlan string `json:"subscriptionPlan"`
		} `json:"tenant"`
	}
	if err := resp.into(&me); err != nil {
		return err
	}
	fmt.Printf("%s <%s> %s\n", me.FullName, me.Email, me.Role)
	fmt.Printf("tenant %s (%s, plan %s)\n", me.Tenant.Subdomain, me.Tenant.ID, me.Tenant.SubscriptionPlan)
	return nil
}

func logout() error {
	if _, err := newAPIClient().call(http.MethodPost, "/auth/logout", nil); err != nil {
		fmt.Fprintf(os.Stderr, "warning: server logout failed: %v\n", err)
	}
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
	return nil
}

// currentTenant reads the caller's tenant id from the validated token
func currentTenant(c *apiClient) (string, error) {
	resp, err := c.call(http.MethodGet, "/auth/validate", nil)
	if err != nil {
		return "", err
	}
	var info struct {
		TenantID string `json:"tenantId"`
	}
	if err := resp.into(&info); err != nil {
		return "", err
	}
	return info.TenantID, nil
}

// User commands
func listUsers() error {
	c := newAPIClient()
	tenantID, err := currentTenant(c)
	if err != nil {
		return err
	}

	resp, err := c.call(http.MethodGet, "/tenants/"+tenantID+"/users", nil)
	if err != nil {
		return err
	}
	var users []map[string]any
	if err := resp.into(&users); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\tACTIVE")
	for _, u := range users {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n", u["id"], u["email"], u["fullName"], u["role"], u["isActive"])
	}
	return w.Flush()
}

func createUser(args []string) error {
	fs := flag.NewFlagSet("user create", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "password")
	fullName := fs.String("full-name", "", "full name")
	role := fs.String("role", "user", "role (user|tenantadmin)")
	fs.Parse(args)

	c := newAPIClient()
	tenantID, err := currentTenant(c)
	if err != nil {
		return err
	}

	resp, err := c.call(http.MethodPost, "/tenants/"+tenantID+"/users", map[string]string{
		"email":    *email,
		"password": *password,
		"fullName": *fullName,
		"role":     *role,
	})
	if err != nil {
		return err
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := resp.into(&out); err != nil {
		return err
	}
	fmt.Printf("✓ User created: %s (%s)\n", *email, out.ID)
	return nil
}

// Project commands
func listProjects() error {
	resp, err := newAPIClient().call(http.MethodGet, "/projects", nil)
	if err != nil {
		return err
	}
	var projects []map[string]any
	if err := resp.into(&projects); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tCREATED")
	for _, p := range projects {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\n", p["id"], p["name"], p["status"], p["createdAt"])
	}
	return w.Flush()
}

func createProject(args []string) error {
	fs := flag.NewFlagSet("project create", flag.ExitOnError)
	name := fs.String("name", "", "project name")
	description := fs.String("description", "", "project description")
	fs.Parse(args)

	resp, err := newAPIClient().call(http.MethodPost, "/projects", map[string]string{
		"name":        *name,
		"description": *description,
	})
	if err != nil {
		return err
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := resp.into(&out); err != nil {
		return err
	}
	fmt.Printf("✓ Project created: %s\n", out.ID)
	return nil
}

func deleteProject(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: taskflow project delete <project-id>")
	}
	resp, err := newAPIClient().call(http.MethodDelete, "/projects/"+url.PathEscape(args[0]), nil)
	if err != nil {
		return err
	}
	fmt.Printf("✓ %s\n", resp.Message)
	return nil
}

// Task commands
func listTasks(args []string) error {
	fs := flag.NewFlagSet("task list", flag.ExitOnError)
	project := fs.String("project", "", "project id")
	status := fs.String("status", "", "filter by status")
	priority := fs.String("priority", "", "filter by priority")
	assignee := fs.String("assignee", "", "filter by assigned user id")
	fs.Parse(args)

	if *project == "" {
		return fmt.Errorf("project is required")
	}

	q := url.Values{}
	if *status != "" {
		q.Set("status", *status)
	}
	if *priority != "" {
		q.Set("priority", *priority)
	}
	if *assignee != "" {
		q.Set("assignedTo", *assignee)
	}
	path := "/projects/" + url.PathEscape(*project) + "/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := newAPIClient().call(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	var tasks []map[string]any
	if err := resp.into(&tasks); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPRIORITY\tDUE")
	for _, t := range tasks {
		due := t["dueDate"]
		if due == nil {
			due = "-"
		}
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n", t["id"], t["title"], t["status"], t["priority"], due)
	}
	return w.Flush()
}

func createTask(args []string) error {
	fs := flag.NewFlagSet("task create", flag.ExitOnError)
	project := fs.String("project", "", "project id")
	title := fs.String("title", "", "task title")
	description := fs.String("description", "", "task description")
	priority := fs.String("priority", "", "low|medium|high")
	assignee := fs.String("assignee", "", "assigned user id")
	due := fs.String("due", "", "due date (YYYY-MM-DD)")
	fs.Parse(args)

	if *project == "" {
		return fmt.Errorf("project is required")
	}

	body := map[string]any{
		"title":       *title,
		"description": *description,
		"priority":    *priority,
	}
	if *assignee != "" {
		body["assignedTo"] = *assignee
	}
	if *due != "" {
		body["dueDate"] = *due
	}

	resp, err := newAPIClient().call(http.MethodPost, "/projects/"+url.PathEscape(*project)+"/tasks", body)
	if err != nil {
		return err
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := resp.into(&out); err != nil {
		return err
	}
	fmt.Printf("✓ Task created: %s\n", out.ID)
	return nil
}

func setTaskStatus(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: taskflow task status <task-id> <todo|in_progress|completed>")
	}
	resp, err := newAPIClient().call(http.MethodPatch, "/tasks/"+url.PathEscape(args[0])+"/status", map[string]string{
		"status": args[1],
	})
	if err != nil {
		return err
	}
	var out struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := resp.into(&out); err != nil {
		return err
	}
	fmt.Printf("✓ Task %s is now %s\n", out.ID, out.Status)
	return nil
}

func updateTask(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: taskflow task update <task-id> [flags]")
	}
	taskID := args[0]

	fs := flag.NewFlagSet("task update", flag.ExitOnError)
	title := fs.String("title", "", "new title")
	description := fs.String("description", "", "new description")
	priority := fs.String("priority", "", "new priority")
	assignee := fs.String("assignee", "", "assigned user id")
	unassign := fs.Bool("unassign", false, "clear the assignee")
	due := fs.String("due", "", "due date (YYYY-MM-DD)")
	fs.Parse(args[1:])

	// Only flags given on the command line are sent
	body := map[string]any{}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			body["title"] = *title
		case "description":
			body["description"] = *description
		case "priority":
			body["priority"] = *priority
		case "assignee":
			body["assignedTo"] = *assignee
		case "due":
			body["dueDate"] = *due
		}
	})
	if *unassign {
		body["assignedTo"] = ""
	}
	if len(body) == 0 {
		return fmt.Errorf("nothing to update")
	}

	resp, err := newAPIClient().call(http.MethodPut, "/tasks/"+url.PathEscape(taskID), body)
	if err != nil {
		return err
	}
	fmt.Printf("✓ %s\n", resp.Message)
	return nil
}

func deleteTask(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: taskflow task delete <task-id>")
	}
	resp, err := newAPIClient().call(http.MethodDelete, "/tasks/"+url.PathEscape(args[0]), nil)
	if err != nil {
		return err
	}
	fmt.Printf("✓ %s\n", resp.Message)
	return nil
}

func printUsage() {
	fmt.Print(`TaskFlow CLI

Usage:
  taskflow <command> [options]

Commands:
  auth     Session management (register-tenant, login, me, logout)
  user     Tenant users (list, create) - create requires tenantadmin
  project  Projects (list, create, delete)
  task     Tasks (list, create, status, update, delete)
  help     Show this help message

Environment Variables:
  TASKFLOW_API    API endpoint (default: http://localhost:5000/api)

Examples:
  taskflow auth register-tenant -name "Acme" -subdomain acme -email admin@acme.com -password Admin@123 -full-name "Acme Admin"
  taskflow auth login -email admin@acme.com -password Admin@123 -tenant acme
  taskflow project create -name Website
  taskflow task create -project <id> -title "Design mockups" -priority high
  taskflow task status <task-id> in_progress
`)
}
