//go:build !nomedia

package media

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/quangtn/voicelink/pkg/logger"
)

// audioDevice owns the default microphone and speaker streams for one call.
// Captured frames are published on a channel; decoded remote audio is pushed
// into a ring that the playback loop drains.
type audioDevice struct {
	cfg AudioConfig

	inStream  *portaudio.Stream
	outStream *portaudio.Stream
	inBuf     []int16
	outBuf    []int16

	playback *int16Ring

	captureFrameCh chan []int16

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func openAudioDevice(cfg AudioConfig) (*audioDevice, error) {
	if cfg.SampleRate <= 0 || cfg.Channels != 1 || cfg.BitsPerSample != 16 {
		return nil, errors.New("audio config must be mono/16bit/valid rate")
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}

	in, out, err := pickDevices(cfg)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}

	logger.Log.Infof("audio input device: %s", in.Name)
	logger.Log.Infof("audio output device: %s", out.Name)

	inParams := portaudio.HighLatencyParameters(in, nil)
	inParams.SampleRate = float64(cfg.SampleRate)
	inParams.Input.Channels = 1
	inParams.FramesPerBuffer = cfg.CaptureSamples()
	inBuf := make([]int16, inParams.FramesPerBuffer)
	inStream, err := portaudio.OpenStream(inParams, inBuf)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}

	outParams := portaudio.HighLatencyParameters(nil, out)
	outParams.SampleRate = float64(cfg.SampleRate)
	outParams.Output.Channels = 1
	outParams.FramesPerBuffer = cfg.PlaybackSamples()
	outBuf := make([]int16, outParams.FramesPerBuffer)
	outStream, err := portaudio.OpenStream(outParams, &outBuf)
	if err != nil {
		_ = inStream.Close()
		_ = portaudio.Terminate()
		return nil, err
	}

	d := &audioDevice{
		cfg:            cfg,
		inStream:       inStream,
		outStream:      outStream,
		inBuf:          inBuf,
		outBuf:         outBuf,
		playback:       newInt16Ring(cfg.SampleRate * 3),
		captureFrameCh: make(chan []int16, 128),
		stopCh:         make(chan struct{}),
	}

	if err := d.start(); err != nil {
		_ = inStream.Close()
		_ = outStream.Close()
		_ = portaudio.Terminate()
		return nil, err
	}

	return d, nil
}

// pickDevices resolves the capture and playback devices, matching configured
// name keywords when set and falling back to the system defaults.
func pickDevices(cfg AudioConfig) (*portaudio.DeviceInfo, *portaudio.DeviceInfo, error) {
	in, err := matchDevice(cfg.InputDeviceName, true)
	if err != nil {
		return nil, nil, fmt.Errorf("no input device: %w", err)
	}
	out, err := matchDevice(cfg.OutputDeviceName, false)
	if err != nil {
		return nil, nil, fmt.Errorf("no output device: %w", err)
	}
	return in, out, nil
}

func matchDevice(keyword string, wantInput bool) (*portaudio.DeviceInfo, error) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword != "" {
		devices, err := portaudio.Devices()
		if err != nil {
			return nil, err
		}
		for _, d := range devices {
			if !strings.Contains(strings.ToLower(d.Name), keyword) {
				continue
			}
			if wantInput && d.MaxInputChannels > 0 {
				return d, nil
			}
			if !wantInput && d.MaxOutputChannels > 0 {
				return d, nil
			}
		}
		logger.Log.Warnf("no audio device matching %q, using default", keyword)
	}
	if wantInput {
		return portaudio.DefaultInputDevice()
	}
	return portaudio.DefaultOutputDevice()
}

func (d *audioDevice) start() error {
	if err := d.inStream.Start(); err != nil {
		return err
	}
	if err := d.outStream.Start(); err != nil {
		_ = d.inStream.Stop()
		return err
	}

	d.wg.Add(2)
	go d.captureLoop(d.inBuf)
	go d.playbackLoop(d.outBuf)
	return nil
}

func (d *audioDevice) CaptureFrames() <-chan []int16 {
	return d.captureFrameCh
}

func (d *audioDevice) PushPlayback(samples []int16) {
	if len(samples) == 0 {
		return
	}
	d.playback.Write(samples)
}

func (d *audioDevice) Close() error {
	var closeErr error
	d.stopOnce.Do(func() {
		close(d.stopCh)
		d.playback.Close()
		d.wg.Wait()
		close(d.captureFrameCh)

		_ = d.inStream.Stop()
		_ = d.outStream.Stop()
		if err := d.inStream.Close(); err != nil && closeErr == nil {
			closeErr = err
		}
		if err := d.outStream.Close(); err != nil && closeErr == nil {
			closeErr = err
		}
		if err := portaudio.Terminate(); err != nil && closeErr == nil {
			closeErr = err
		}
	})
	return closeErr
}

func (d *audioDevice) captureLoop(buf []int16) {
	defer d.wg.Done()

	for {
		select {
		case <-d.stopCh:
			return
		default:
		}

		if err := d.inStream.Read(); err != nil {
			logger.Log.Debugf("capture read error: %v", err)
			time.Sleep(20 * time.Millisecond)
			continue
		}

		frame := make([]int16, len(buf))
		copy(frame, buf)

		select {
		case d.captureFrameCh <- frame:
		default:
		}
	}
}

func (d *audioDevice) playbackLoop(buf []int16) {
	defer d.wg.Done()

	for {
		select {
		case <-d.stopCh:
			return
		default:
		}

		n, ok := d.playback.ReadPartial(buf)
		if !ok {
			return
		}
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}

		if err := d.outStream.Write(); err != nil {
			logger.Log.Debugf("playback write error: %v", err)
			time.Sleep(20 * time.Millisecond)
		}
	}
}
