package verifycache

import (
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/ssh"
)

// Tunnel forwards a local TCP port to a remote Redis instance through an SSH
// connection, for environments where a verdict cache runs on a bastion or
// lab host that only exposes SSH. Generalizes device.SSHTunnel, which
// forwards to a fixed remote port; this one takes the remote address as a
// parameter since a cache's Redis is not necessarily co-located with SSH.
type Tunnel struct {
	localAddr  string
	remoteAddr string
	sshClient  *ssh.Client
	listener   net.Listener
	done       chan struct{}
	wg         sync.WaitGroup
}

// DialTunnel opens an SSH connection to host:port and a local listener
// forwarding to remoteAddr (e.g. "127.0.0.1:6379") on the far side. If port
// is 0, defaults to 22.
func DialTunnel(host, user, pass string, port int, remoteAddr string) (*Tunnel, error) {
	if port == 0 {
		port = 22
	}
	config := &ssh.ClientConfig{
		User: user,
		Auth: []ssh.AuthMethod{
			ssh.Password(pass),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         30 * time.Second,
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	sshClient, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("verifycache: SSH dial %s@%s: %w", user, addr, err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("verifycache: local listen: %w", err)
	}

	t := &Tunnel{
		localAddr:  listener.Addr().String(),
		remoteAddr: remoteAddr,
		sshClient:  sshClient,
		listener:   listener,
		done:       make(chan struct{}),
	}

	t.wg.Add(1)
	go t.acceptLoop()

	return t, nil
}

// LocalAddr returns the local address that forwards to remoteAddr through
// the SSH connection.
func (t *Tunnel) LocalAddr() string {
	return t.localAddr
}

// Cache dials a verifycache.Cache against the tunnel's local forwarding
// address rather than a direct host:port.
func (t *Tunnel) Cache(ttl time.Duration) *Cache {
	return NewFromClient(redis.NewClient(&redis.Options{Addr: t.localAddr, DB: 7}), ttl)
}

// Close stops the listener, closes the SSH connection, and waits for every
// forwarding goroutine to finish.
func (t *Tunnel) Close() error {
	close(t.done)
	t.listener.Close()
	t.sshClient.Close()
	t.wg.Wait()
	return nil
}

func (t *Tunnel) acceptLoop() {
	defer t.wg.Done()
	for {
		local, err := t.listener.Accept()
		if err != nil {
			select {
			case <-t.done:
				return
			default:
				continue
			}
		}
		t.wg.Add(1)
		go t.forward(local)
	}
}

func (t *Tunnel) forward(local net.Conn) {
	defer t.wg.Done()
	defer local.Close()

	remote, err := t.sshClient.Dial("tcp", t.remoteAddr)
	if err != nil {
		return
	}
	defer remote.Close()

	done := make(chan struct{}, 2)
	go func() {
		io.Copy(remote, local)
		done <- struct{}{}
	}()
	go func() {
		io.Copy(local, remote)
		done <- struct{}{}
	}()
	<-done
}
