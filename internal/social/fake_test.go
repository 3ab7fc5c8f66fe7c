package social

import (
	"context"
	"errors"
	"fmt"
)

type publishCall struct {
	body   PostBody
	parent *PostReference
	root   *PostReference
}

// fakeClient is an in-memory Client for exercising the publisher and
// orchestrator without any platform SDK.
type fakeClient struct {
	platform string

	failAt       int // publish call index to fail at, -1 never
	publishCalls []publishCall

	digest      string
	digestErr   error
	digestCalls int

	repostErr   error
	repostCalls []PostReference
}

func newFakeClient(platform string) *fakeClient {
	return &fakeClient{platform: platform, failAt: -1}
}

func (f *fakeClient) Name() string { return f.platform }

func (f *fakeClient) Publish(_ context.Context, body PostBody, parent, root *PostReference) (*PostReference, error) {
	index := len(f.publishCalls)
	f.publishCalls = append(f.publishCalls, publishCall{body: body, parent: parent, root: root})
	if index == f.failAt {
		return nil, errors.New("simulated publish failure")
	}
	id := fmt.Sprintf("%s-post-%d", f.platform, index)
	return &PostReference{
		Platform: f.platform,
		ID:       id,
		Digest:   f.digest,
		URL:      "https://example.com/" + id,
	}, nil
}

func (f *fakeClient) LookupDigest(_ context.Context, platformID string) (string, error) {
	f.digestCalls++
	if f.digestErr != nil {
		return "", f.digestErr
	}
	return f.digest, nil
}

func (f *fakeClient) Repost(_ context.Context, ref PostReference) (*PostReference, error) {
	f.repostCalls = append(f.repostCalls, ref)
	if f.repostErr != nil {
		return nil, f.repostErr
	}
	id := fmt.Sprintf("%s-repost-%d", f.platform, len(f.repostCalls))
	return &PostReference{Platform: f.platform, ID: id, URL: "https://example.com/" + id}, nil
}

func testRegistry(accounts map[string]*fakeClient) *Registry {
	reg := make([]*Account, 0, len(accounts))
	for name, client := range accounts {
		reg = append(reg, &Account{Name: name, Platform: client.platform, Client: client})
	}
	return NewRegistry(reg...)
}
