package remote

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/m-manu/virtualpath/fs"
	"github.com/m-manu/virtualpath/logging"
)

// SubsystemArgs builds the arguments of the system ssh binary that start the given subsystem on t
func SubsystemArgs(t Target, keyPath string, subsystem string) []string {
	args := make([]string, 0, 8)
	if t.User != "" {
		args = append(args, "-l", t.User)
	}
	if t.Port != 0 {
		args = append(args, "-p", strconv.Itoa(t.Port))
	}
	if keyPath != "" {
		args = append(args, "-i", keyPath)
	}
	return append(args, "-s", t.Host, subsystem)
}

// sshProcess closes the pipes of a system ssh process and waits for it to exit
type sshProcess struct {
	cmd   *exec.Cmd
	stdin io.Closer
}

func (p sshProcess) Close() error {
	_ = p.stdin.Close()
	return p.cmd.Wait()
}

// SystemDialer connects through the system ssh binary, so ~/.ssh/config, agents and
// ProxyJump all apply. keyPath may be empty.
func SystemDialer(t Target, keyPath string) fs.SFTPDialer {
	return func() (*sftp.Client, io.Closer, error) {
		cmd := exec.Command("ssh", SubsystemArgs(t, keyPath, "sftp")...)
		cmd.Stderr = os.Stderr
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, nil, fmt.Errorf("ssh stdin pipe failed: %w", err)
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, nil, fmt.Errorf("ssh stdout pipe failed: %w", err)
		}
		if err := cmd.Start(); err != nil {
			return nil, nil, fmt.Errorf("ssh command failed: %w", err)
		}
		client, err := sftp.NewClientPipe(stdout, stdin)
		if err != nil {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			return nil, nil, err
		}
		logging.Debug("started ssh sftp subsystem", zap.String("target", t.Spec()))
		return client, sshProcess{cmd: cmd, stdin: stdin}, nil
	}
}

// Auth configures NativeDialer. At least one of Password and KeyPath is required.
type Auth struct {
	Password      string
	KeyPath       string
	KeyPassphrase string

	// KnownHostsPath defaults to ~/.ssh/known_hosts
	KnownHostsPath        string
	InsecureIgnoreHostKey bool

	Timeout time.Duration
}

func (a Auth) methods() ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod
	if a.KeyPath != "" {
		pem, err := os.ReadFile(a.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("couldn't read key %s: %w", a.KeyPath, err)
		}
		var signer ssh.Signer
		if a.KeyPassphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(pem, []byte(a.KeyPassphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(pem)
		}
		if err != nil {
			return nil, fmt.Errorf("couldn't parse key %s: %w", a.KeyPath, err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if a.Password != "" {
		methods = append(methods, ssh.Password(a.Password))
	}
	if len(methods) == 0 {
		return nil, errors.New("no SSH authentication method configured")
	}
	return methods, nil
}

func (a Auth) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if a.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	path := a.KnownHostsPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("couldn't locate known_hosts: %w", err)
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}
	callback, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't load known hosts from %s: %w", path, err)
	}
	return callback, nil
}

// ClientConfig builds the SSH client configuration for t
func (a Auth) ClientConfig(t Target) (*ssh.ClientConfig, error) {
	methods, err := a.methods()
	if err != nil {
		return nil, err
	}
	callback, err := a.hostKeyCallback()
	if err != nil {
		return nil, err
	}
	name := t.User
	if name == "" {
		current, err := user.Current()
		if err != nil {
			return nil, fmt.Errorf("no user in target and couldn't determine current user: %w", err)
		}
		name = current.Username
	}
	timeout := a.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ssh.ClientConfig{
		User:            name,
		Auth:            methods,
		HostKeyCallback: callback,
		Timeout:         timeout,
	}, nil
}

// NativeDialer connects with the Go SSH client, without any system binary
func NativeDialer(t Target, auth Auth) fs.SFTPDialer {
	return func() (*sftp.Client, io.Closer, error) {
		cfg, err := auth.ClientConfig(t)
		if err != nil {
			return nil, nil, err
		}
		conn, err := ssh.Dial("tcp", t.Addr(), cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("ssh connection to %s failed: %w", t.Addr(), err)
		}
		client, err := sftp.NewClient(conn)
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("sftp session on %s failed: %w", t.Addr(), err)
		}
		logging.Debug("connected over ssh", zap.String("target", t.Spec()), zap.String("addr", t.Addr()))
		return client, conn, nil
	}
}
