package control

import (
	"context"
	"fmt"
	"log"
	"net"
	"syscall"

	"golang.org/x/net/ipv4"

	"github.com/cwsl/radiocore/internal/mcast"
	"github.com/cwsl/radiocore/internal/tlv"
)

// soReusePort is Linux's SO_REUSEPORT socket option value, needed
// because several processes (or goroutines with independent sockets) may
// all want to listen on the same control/status multicast group.
const soReusePort = 15

// Listener is the control-plane reader, blocking on the command socket.
// It joins the status/control multicast group and feeds every received
// CMD packet to a Dispatcher.
type Listener struct {
	conn  *net.UDPConn
	group *net.UDPAddr
}

// NewListener resolves groupAddr (with FNV-1 hash fallback, per
// mcast.Resolve) and joins it with SO_REUSEADDR/SO_REUSEPORT set, the
// same socket options radiod_status.go uses so multiple local listeners
// can coexist.
func NewListener(groupAddr, ifaceName string) (*Listener, error) {
	addr, err := mcast.Resolve(groupAddr)
	if err != nil {
		return nil, err
	}

	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var opErr error
			ctlErr := c.Control(func(fd uintptr) {
				if err := syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1); err != nil {
					opErr = fmt.Errorf("SO_REUSEADDR: %w", err)
					return
				}
				if err := syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, soReusePort, 1); err != nil {
					opErr = fmt.Errorf("SO_REUSEPORT: %w", err)
				}
			})
			if ctlErr != nil {
				return ctlErr
			}
			return opErr
		},
	}

	pc, err := lc.ListenPacket(context.Background(), "udp4", addr.String())
	if err != nil {
		return nil, fmt.Errorf("control: listen %s: %w", addr, err)
	}
	conn := pc.(*net.UDPConn)

	var iface *net.Interface // nil joins on the system default interface
	if ifaceName != "" {
		iface, err = net.InterfaceByName(ifaceName)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("control: interface %s: %w", ifaceName, err)
		}
	}
	p := ipv4.NewPacketConn(conn)
	if err := p.JoinGroup(iface, addr); err != nil {
		conn.Close()
		return nil, fmt.Errorf("control: join group %s: %w", addr, err)
	}

	return &Listener{conn: conn, group: addr}, nil
}

// Close releases the underlying socket.
func (l *Listener) Close() error { return l.conn.Close() }

// Serve blocks, handing each received CMD packet to d.HandleCommand.
// STATUS packets (emitted by this same process's status emitter on the
// same group) and malformed datagrams under 2 bytes are ignored.
func (l *Listener) Serve(d *Dispatcher, stop <-chan struct{}) {
	buf := make([]byte, 9000)
	for {
		select {
		case <-stop:
			return
		default:
		}
		n, _, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-stop:
				return
			default:
				log.Printf("control: read error: %v", err)
				continue
			}
		}
		if n < 2 || buf[0] != tlv.PacketCmd {
			continue
		}
		d.HandleCommand(append([]byte(nil), buf[1:n]...))
	}
}
