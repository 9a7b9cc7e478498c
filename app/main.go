package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/notify"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/jenkins-e2e/app/browser"
	"github.com/umputun/jenkins-e2e/app/conditions"
	"github.com/umputun/jenkins-e2e/app/fixtures"
	"github.com/umputun/jenkins-e2e/app/jenkins"
	notifier "github.com/umputun/jenkins-e2e/app/notify"
	"github.com/umputun/jenkins-e2e/app/scenario"
	"github.com/umputun/jenkins-e2e/app/service"
	"github.com/umputun/jenkins-e2e/app/store"
	"github.com/umputun/jenkins-e2e/app/web"
)

var opts struct {
	Host        string        `long:"host" env:"LOCAL_HOST" default:"localhost" description:"application host"`
	Port        int           `long:"port" env:"LOCAL_PORT" default:"8080" description:"application port"`
	BasePath    string        `long:"base-path" env:"BASE_PATH" description:"application context path, e.g. /jenkins"`
	User        string        `short:"u" long:"user" env:"JENKINS_USER" description:"user to log in with, empty skips login"`
	Password    string        `long:"password" env:"JENKINS_PASSWORD" description:"user password for the login form"`
	Token       string        `long:"token" env:"JENKINS_TOKEN" description:"api token for http calls, password is used if not set"`
	Fixtures    string        `short:"f" long:"fixtures" env:"FIXTURES" description:"fixtures file overriding embedded defaults"`
	Scenarios   []string      `short:"s" long:"scenario" env:"SCENARIOS" env-delim:"," description:"scenario ids to run, all if not set"`
	List        bool          `long:"list" description:"list scenarios and exit"`
	Seed        uint64        `long:"seed" env:"SEED" description:"random data seed, time based if 0"`
	Concurrency int           `short:"c" long:"concurrency" env:"CONCURRENCY" default:"1" description:"scenarios running in parallel, needs --no-cleanup and no exclusive scenarios"`
	NoCleanup   bool          `long:"no-cleanup" env:"NO_CLEANUP" description:"keep existing jobs, scenarios expecting an empty dashboard fail"`
	Schedule    string        `long:"schedule" env:"SCHEDULE" description:"cron spec for monitor mode, runs once if not set"`
	Screenshots string        `long:"screenshots" env:"SCREENSHOTS" default:"screenshots" description:"failed scenario screenshots dir, empty to disable"`
	WaitTimeout time.Duration `long:"wait" env:"WAIT" default:"2m" description:"max time to wait for the application to become ready"`
	Dbg         bool          `long:"dbg" env:"DEBUG" description:"debug mode"`

	Browser struct {
		Headed  bool          `long:"headed" env:"HEADED" description:"show browser window"`
		SlowMo  time.Duration `long:"slow-mo" env:"SLOW_MO" description:"delay between browser actions"`
		Timeout time.Duration `long:"timeout" env:"TIMEOUT" default:"10s" description:"page action and assertion timeout"`
		Install bool          `long:"install" env:"INSTALL" description:"install chromium before start"`
		Width   int           `long:"width" env:"WIDTH" default:"1280" description:"viewport width"`
		Height  int           `long:"height" env:"HEIGHT" default:"720" description:"viewport height"`
	} `group:"browser" namespace:"browser" env-namespace:"BROWSER"`

	Repeater struct {
		Attempts int           `long:"attempts" env:"ATTEMPTS" default:"1" description:"how many times to run a failed scenario"`
		Duration time.Duration `long:"duration" env:"DURATION" default:"1s" description:"initial duration"`
		Factor   float64       `long:"factor" env:"FACTOR" default:"3" description:"backoff factor"`
		Jitter   bool          `long:"jitter" env:"JITTER" description:"jitter"`
	} `group:"repeater" namespace:"repeater" env-namespace:"REPEATER"`

	Store struct {
		File string `long:"file" env:"FILE" description:"sqlite file for run history, disabled if not set"`
		Keep int    `long:"keep" env:"KEEP" default:"100" description:"runs to keep in monitor mode, 0 keeps all"`
	} `group:"store" namespace:"store" env-namespace:"STORE"`

	Notify struct {
		EnabledError      bool          `long:"enabled-error" env:"ENABLED_ERROR" description:"enable email notifications on failed runs"`
		EnabledCompletion bool          `long:"enabled-complete" env:"ENABLED_COMPLETE" description:"enable completion notifications"`
		SMTPHost          string        `long:"smtp-host" env:"SMTP_HOST" description:"SMTP host"`
		SMTPPort          int           `long:"smtp-port" env:"SMTP_PORT" description:"SMTP port"`
		SMTPUsername      string        `long:"smtp-username" env:"SMTP_USERNAME" description:"SMTP user name"`
		SMTPPassword      string        `long:"smtp-password" env:"SMTP_PASSWORD" description:"SMTP password"`
		SMTPTLS           bool          `long:"smtp-tls" env:"SMTP_TLS" description:"enable SMTP TLS"`
		SMTPTimeOut       time.Duration `long:"smtp-timeout" env:"SMTP_TIMEOUT" default:"10s" description:"SMTP TCP connection timeout"`
		FromEmail         string        `long:"from" env:"FROM" description:"SMTP from email"`
		ToEmails          []string      `long:"to" env:"TO" description:"SMTP to email(s)" env-delim:","`
		Template          string        `long:"template" env:"TEMPLATE" description:"report template file"`
		HostName          string        `long:"host" env:"HOSTNAME" description:"host name running the suite"`
		Timeout           time.Duration `long:"timeout" env:"TIMEOUT" default:"10s" description:"notification delivery timeout"`
	} `group:"notify" namespace:"notify" env-namespace:"NOTIFY"`

	Web struct {
		Enabled      bool    `long:"enabled" env:"ENABLED" description:"enable status server in monitor mode"`
		Address      string  `long:"address" env:"ADDRESS" default:"127.0.0.1:8090" description:"status server address"`
		PasswordHash string  `long:"password-hash" env:"PASSWORD_HASH" description:"bcrypt hash for basic auth, user jenkins-e2e"`
		TriggerRate  float64 `long:"trigger-rate" env:"TRIGGER_RATE" default:"0.1" description:"manual runs per second allowed from one address"`
	} `group:"web" namespace:"web" env-namespace:"WEB"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"enable logging to file"`
		Filename        string `long:"filename" env:"FILENAME" default:"jenkins-e2e.log" description:"file to write logs to"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"max size of log file in megabytes"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"7" description:"max number of old log files to keep"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"0" description:"max number of days to keep old log files, 0 keeps all"`
		EnabledCompress bool   `long:"enabled-compress" env:"ENABLED_COMPRESS" description:"compress rotated log files"`
	} `group:"log" namespace:"log" env-namespace:"LOG"`

	Conditions struct {
		CPUBelow      int           `long:"cpu-below" env:"CPU_BELOW" description:"run only if cpu usage is below, percent"`
		MemoryBelow   int           `long:"memory-below" env:"MEMORY_BELOW" description:"run only if memory usage is below, percent"`
		LoadAvgBelow  float64       `long:"load-avg-below" env:"LOAD_AVG_BELOW" description:"run only if 1m load average is below"`
		DiskFreeAbove int           `long:"disk-free-above" env:"DISK_FREE_ABOVE" description:"run only if free disk is above, percent"`
		DiskFreePath  string        `long:"disk-free-path" env:"DISK_FREE_PATH" default:"/" description:"path for disk free check"`
		Custom        string        `long:"custom" env:"CUSTOM" description:"script to run, non-zero exit skips the run"`
		MaxPostpone   time.Duration `long:"max-postpone" env:"MAX_POSTPONE" description:"wait for conditions up to this time, skip at once if 0"`
		CheckInterval time.Duration `long:"check-interval" env:"CHECK_INTERVAL" default:"30s" description:"conditions re-check interval while postponed"`
		Jitter        time.Duration `long:"jitter" env:"JITTER" description:"random delay before scheduled runs, up to this value"`
	} `group:"conditions" namespace:"conditions" env-namespace:"CONDITIONS"`
}

var revision = "unknown"

func main() {
	fmt.Printf("jenkins-e2e %s\n", revision)

	// .env goes first, so its values are visible to env-based options
	envErr := godotenv.Load()
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(2)
	}
	setupLogs()
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		log.Printf("[WARN] can't load .env: %v", envErr)
	}

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	if opts.List {
		listScenarios(os.Stdout, scenario.All())
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals(cancel) // handle SIGQUIT and SIGTERM

	if err := run(ctx); err != nil {
		log.Printf("[ERROR] %v", err)
		cancel()
		os.Exit(1) //nolint:gocritic // cancel called explicitly
	}
}

func run(ctx context.Context) error {
	selected, err := scenario.Select(opts.Scenarios)
	if err != nil {
		return err
	}
	if err = scenario.CheckConcurrency(selected, opts.Concurrency, !opts.NoCleanup); err != nil {
		return err
	}
	data, err := fixtures.Load(opts.Fixtures)
	if err != nil {
		return fmt.Errorf("can't load fixtures: %w", err)
	}

	baseURL := makeBaseURL()
	client := jenkins.New(jenkins.Params{BaseURL: baseURL, User: opts.User, Token: apiToken(), Timeout: opts.Browser.Timeout})
	attempts := max(int(opts.WaitTimeout/(2*time.Second)), 1)
	if err = client.WaitReady(ctx, attempts, 2*time.Second); err != nil {
		return fmt.Errorf("application at %s is not ready: %w", baseURL, err)
	}

	launcher, err := browser.New(browser.Params{Headless: !opts.Browser.Headed, SlowMo: opts.Browser.SlowMo,
		Timeout: opts.Browser.Timeout, Install: opts.Browser.Install, Width: opts.Browser.Width, Height: opts.Browser.Height})
	if err != nil {
		return err
	}
	defer func() {
		if err := launcher.Close(); err != nil {
			log.Printf("[WARN] %v", err)
		}
	}()

	var st *store.Store
	if opts.Store.File != "" {
		if st, err = store.New(opts.Store.File); err != nil {
			return err
		}
		defer func() {
			if err := st.Close(); err != nil {
				log.Printf("[WARN] can't close store: %v", err)
			}
		}()
	}

	suite := &suiteRunner{launcher: launcher, client: client, data: data, store: st, notifier: makeNotifier(), baseURL: baseURL}

	if opts.Schedule == "" {
		rep, err := suite.Run(ctx, opts.Scenarios)
		if err != nil {
			return err
		}
		printReport(os.Stdout, rep)
		if !rep.OK() {
			return errors.New(rep.Summary())
		}
		return nil
	}

	return schedule(ctx, suite, st)
}

// schedule runs the suite in monitor mode with optional status server
func schedule(ctx context.Context, suite service.Runner, st *store.Store) error {
	svc := &service.Scheduler{
		Cron:          cron.New(),
		Spec:          opts.Schedule,
		Scenarios:     opts.Scenarios,
		Runner:        suite,
		Conditions:    makeConditions(),
		MaxPostpone:   opts.Conditions.MaxPostpone,
		CheckInterval: opts.Conditions.CheckInterval,
		Jitter:        opts.Conditions.Jitter,
		Keep:          opts.Store.Keep,
	}
	if !svc.Conditions.Empty() {
		svc.ConditionChecker = conditions.NewChecker()
	}
	if st != nil {
		svc.Retention = st
	}

	if opts.Web.Enabled {
		if st == nil {
			return errors.New("status server requires --store.file")
		}
		trigger := make(chan web.TriggerRequest, 1)
		svc.ManualTrigger = trigger
		srv, err := web.New(web.Config{Reports: st, Trigger: trigger, PasswordHash: opts.Web.PasswordHash,
			Version: revision, TriggerRate: opts.Web.TriggerRate})
		if err != nil {
			return err
		}
		go func() {
			if err := srv.Run(ctx, opts.Web.Address); err != nil {
				log.Printf("[ERROR] %v", err)
			}
		}()
	}

	return svc.Do(ctx)
}

// suiteRunner makes a scenario runner for each run, so every run gets its own seed
type suiteRunner struct {
	launcher *browser.Launcher
	client   *jenkins.Client
	data     fixtures.Data
	store    *store.Store
	notifier *notifier.Service
	baseURL  string
}

// Run executes scenarios by ids, all if ids are empty
func (s *suiteRunner) Run(ctx context.Context, ids []string) (scenario.Report, error) {
	selected, err := scenario.Select(ids)
	if err != nil {
		return scenario.Report{}, err
	}
	if err = scenario.CheckConcurrency(selected, opts.Concurrency, !opts.NoCleanup); err != nil {
		return scenario.Report{}, err
	}

	r := &scenario.Runner{
		NewSession: func(baseURL string) (scenario.Session, error) {
			sess, err := s.launcher.NewSession(baseURL)
			if err != nil {
				return nil, err
			}
			return sess, nil
		},
		BaseURL:   s.baseURL,
		Data:      s.data,
		Generator: fixtures.NewGenerator(opts.Seed),
		Setup:     makeSetup(s.client),
		Repeater: repeater.New(&strategy.Backoff{Repeats: opts.Repeater.Attempts, Duration: opts.Repeater.Duration,
			Factor: opts.Repeater.Factor, Jitter: opts.Repeater.Jitter}),
		Concurrency:    opts.Concurrency,
		ExpectTimeout:  opts.Browser.Timeout,
		ScreenshotsDir: opts.Screenshots,
		NotifyTimeout:  opts.Notify.Timeout,
	}
	if s.store != nil {
		r.Recorder = s.store
	}
	if s.notifier != nil {
		r.Notifier = s.notifier
	}
	return r.Run(ctx, selected)
}

// makeSetup returns scenario setup, jobs are deleted before each scenario unless --no-cleanup set
func makeSetup(cleaner scenario.Cleaner) scenario.Setup {
	setup := scenario.Setup{User: opts.User, Password: opts.Password}
	if !opts.NoCleanup {
		setup.Cleaner = cleaner
	}
	return setup
}

func makeNotifier() *notifier.Service {
	if !opts.Notify.EnabledError && !opts.Notify.EnabledCompletion {
		return nil
	}

	if opts.Notify.FromEmail == "" {
		opts.Notify.FromEmail = "jenkins-e2e@" + makeHostName()
	}

	return notifier.NewService(
		notifier.Params{
			EnabledError:      opts.Notify.EnabledError,
			EnabledCompletion: opts.Notify.EnabledCompletion,
			ReportTemplate:    opts.Notify.Template,
			HostName:          makeHostName(),
		},
		notifier.SendersParams{
			SMTPParams: notify.SMTPParams{
				Host:        opts.Notify.SMTPHost,
				Port:        opts.Notify.SMTPPort,
				TLS:         opts.Notify.SMTPTLS,
				ContentType: "text/html",
				Charset:     "UTF-8",
				Username:    opts.Notify.SMTPUsername,
				Password:    opts.Notify.SMTPPassword,
				TimeOut:     opts.Notify.SMTPTimeOut,
			},
			FromEmail: opts.Notify.FromEmail,
			ToEmails:  opts.Notify.ToEmails,
		},
	)
}

func makeHostName() string {
	if opts.Notify.HostName != "" {
		return opts.Notify.HostName
	}
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}

// makeBaseURL builds the application url from host, port and base path
func makeBaseURL() string {
	u := url.URL{Scheme: "http", Host: fmt.Sprintf("%s:%d", opts.Host, opts.Port), Path: validateBasePath(opts.BasePath)}
	return u.String()
}

// validateBasePath normalizes context path: leading slash, no trailing slash, empty for root
func validateBasePath(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func apiToken() string {
	if opts.Token != "" {
		return opts.Token
	}
	return opts.Password
}

func makeConditions() conditions.Config {
	c := conditions.Config{Custom: opts.Conditions.Custom, DiskFreePath: opts.Conditions.DiskFreePath}
	if opts.Conditions.CPUBelow > 0 {
		c.CPUBelow = &opts.Conditions.CPUBelow
	}
	if opts.Conditions.MemoryBelow > 0 {
		c.MemoryBelow = &opts.Conditions.MemoryBelow
	}
	if opts.Conditions.LoadAvgBelow > 0 {
		c.LoadAvgBelow = &opts.Conditions.LoadAvgBelow
	}
	if opts.Conditions.DiskFreeAbove > 0 {
		c.DiskFreeAbove = &opts.Conditions.DiskFreeAbove
	}
	return c
}

func listScenarios(w io.Writer, scenarios []scenario.Scenario) {
	for _, sc := range scenarios {
		fmt.Fprintln(w, sc.String())
	}
}

func printReport(w io.Writer, rep scenario.Report) {
	for _, r := range rep.Results {
		line := fmt.Sprintf("%-7s %s | %s", r.Status, r.ID, r.Name)
		if r.Attempts > 1 {
			line += fmt.Sprintf(" (%d attempts)", r.Attempts)
		}
		fmt.Fprintln(w, line)
		if r.Error != "" {
			fmt.Fprintf(w, "        %s\n", r.Error)
		}
		if r.Screenshot != "" {
			fmt.Fprintf(w, "        screenshot: %s\n", r.Screenshot)
		}
	}
	fmt.Fprintf(w, "run %s, seed %d: %s\n", rep.ID, rep.Seed, rep.Summary())
}

// setupLogs configures lgr and returns the writer logs go to
func setupLogs() io.Writer {
	var out io.Writer = os.Stdout
	if opts.Log.Enabled {
		out = &lumberjack.Logger{
			Filename:   opts.Log.Filename,
			MaxSize:    opts.Log.MaxSize,
			MaxBackups: opts.Log.MaxBackups,
			MaxAge:     opts.Log.MaxAge,
			Compress:   opts.Log.EnabledCompress,
		}
	}

	logOpts := []log.Option{log.Msec, log.LevelBraces, log.Out(out), log.Err(out)}
	if opts.Dbg {
		logOpts = append(logOpts, log.Debug, log.CallerFunc, log.CallerPkg, log.CallerFile)
	}
	log.Setup(logOpts...)
	return out
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			if sig == syscall.SIGQUIT { // catch SIGQUIT and print stack traces
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
				continue
			}
			cancel() // terminate on SIGTERM and SIGINT
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
}
