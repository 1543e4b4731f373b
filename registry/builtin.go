package registry

import (
	"crypto/tls"
	"fmt"
	"os"
	"path/filepath"

	"github.com/m-manu/virtualpath/fs"
	"github.com/m-manu/virtualpath/remote"
)

func init() {
	Register("memory", newMemory)
	Register("local", newLocal)
	Register("readonly", newReadOnly)
	Register("zip", newZip)
	Register("sftp", newSFTP)
	Register("ftp", newFTP)
	Register("s3", newS3)
	Register("minio", newMinio)
}

func newMemory(Options) (fs.Backend, error) {
	return fs.NewMemoryFS(), nil
}

func newLocal(opts Options) (fs.Backend, error) {
	root, err := opts.Required("root")
	if err != nil {
		return nil, err
	}
	return fs.NewLocalFS(root)
}

// newReadOnly serves a local directory through io/fs, refusing every mutation
func newReadOnly(opts Options) (fs.Backend, error) {
	root, err := opts.Required("root")
	if err != nil {
		return nil, err
	}
	if !fs.IsReadableDirectory(root) {
		return nil, fmt.Errorf("%s is not a readable directory", root)
	}
	return fs.NewReadOnlyFS(os.DirFS(root), filepath.Clean(root)), nil
}

func newZip(opts Options) (fs.Backend, error) {
	file, err := opts.Required("file")
	if err != nil {
		return nil, err
	}
	return fs.NewZipFS(fs.ZipFile(file)), nil
}

// newSFTP dials natively through x/crypto/ssh unless dialer=system asks for the ssh binary
func newSFTP(opts Options) (fs.Backend, error) {
	spec, err := opts.Required("target")
	if err != nil {
		return nil, err
	}
	target, err := remote.ParseTarget(spec)
	if err != nil {
		return nil, err
	}
	insecure, err := opts.Bool("insecure", false)
	if err != nil {
		return nil, err
	}
	timeout, err := opts.Duration("timeout", 0)
	if err != nil {
		return nil, err
	}
	var dial fs.SFTPDialer
	switch d := opts.String("dialer", "native"); d {
	case "native":
		dial = remote.NativeDialer(target, remote.Auth{
			Password:              opts.String("password", ""),
			KeyPath:               opts.String("key", ""),
			KeyPassphrase:         opts.String("passphrase", ""),
			KnownHostsPath:        opts.String("known_hosts", ""),
			InsecureIgnoreHostKey: insecure,
			Timeout:               timeout,
		})
	case "system":
		dial = remote.SystemDialer(target, opts.String("key", ""))
	default:
		return nil, fmt.Errorf("unknown sftp dialer %q (expected native or system)", d)
	}
	return fs.NewSFTPFS(dial, target.Path), nil
}

func newFTP(opts Options) (fs.Backend, error) {
	addr, err := opts.Required("addr")
	if err != nil {
		return nil, err
	}
	timeout, err := opts.Duration("timeout", 0)
	if err != nil {
		return nil, err
	}
	insecure, err := opts.Bool("insecure", false)
	if err != nil {
		return nil, err
	}
	cfg := fs.FTPConfig{
		Address:  addr,
		User:     opts.String("user", "anonymous"),
		Password: opts.String("password", "anonymous"),
		Root:     opts.String("root", "/"),
		Timeout:  timeout,
	}
	switch mode := opts.String("tls", "none"); mode {
	case "none":
	case "implicit", "explicit":
		cfg.TLS = &tls.Config{InsecureSkipVerify: insecure} //nolint:gosec // opt-in for self-signed servers
		cfg.ExplicitTLS = mode == "explicit"
	default:
		return nil, fmt.Errorf("unknown ftp tls mode %q (expected none, implicit or explicit)", mode)
	}
	return fs.NewFTPFS(cfg)
}

func newS3(opts Options) (fs.Backend, error) {
	pathStyle, err := opts.Bool("path_style", false)
	if err != nil {
		return nil, err
	}
	return fs.NewS3FS(fs.S3Config{
		Bucket:       opts.String("bucket", ""),
		Prefix:       opts.String("prefix", ""),
		Region:       opts.String("region", ""),
		Endpoint:     opts.String("endpoint", ""),
		AccessKey:    opts.String("access_key", ""),
		SecretKey:    opts.String("secret_key", ""),
		UsePathStyle: pathStyle,
	})
}

func newMinio(opts Options) (fs.Backend, error) {
	useSSL, err := opts.Bool("ssl", false)
	if err != nil {
		return nil, err
	}
	create, err := opts.Bool("create_bucket", false)
	if err != nil {
		return nil, err
	}
	return fs.NewMinioFS(fs.MinioConfig{
		Endpoint:     opts.String("endpoint", ""),
		AccessKey:    opts.String("access_key", ""),
		SecretKey:    opts.String("secret_key", ""),
		UseSSL:       useSSL,
		Bucket:       opts.String("bucket", ""),
		Prefix:       opts.String("prefix", ""),
		CreateBucket: create,
	})
}
