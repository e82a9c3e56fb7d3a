package config

import (
	"fmt"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/danij/Forum-sub001/internal/authz"
	"github.com/danij/Forum-sub001/internal/entities"
)

// Snapshot publishes successive Config values behind an atomic pointer so
// readers (repositories, the HTTP layer) never block on a reload (§5).
type Snapshot struct {
	ptr atomic.Pointer[Config]
}

// Load reads path with viper, builds a Config by overriding Defaults()
// with every key present in the file, and returns a Snapshot holding it.
func Load(path string) (*Snapshot, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg, err := build(v)
	if err != nil {
		return nil, err
	}

	s := &Snapshot{}
	s.ptr.Store(cfg)
	return s, nil
}

// Get returns the current snapshot. The returned pointer must be treated
// as immutable by the caller.
func (s *Snapshot) Get() *Config {
	return s.ptr.Load()
}

// WatchReloads uses fsnotify to watch path and publish a freshly-rebuilt
// Config to the snapshot whenever it changes on disk. onError receives
// reload failures; the prior snapshot stays published on error (§5:
// immutable-until-replaced, never partially applied).
func (s *Snapshot) WatchReloads(path string, onError func(error)) (stop func() error, err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				v := viper.New()
				v.SetConfigFile(path)
				v.SetConfigType("json")
				if err := v.ReadInConfig(); err != nil {
					if onError != nil {
						onError(fmt.Errorf("config: reload %s: %w", path, err))
					}
					continue
				}
				cfg, err := build(v)
				if err != nil {
					if onError != nil {
						onError(err)
					}
					continue
				}
				s.ptr.Store(cfg)
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if onError != nil {
					onError(werr)
				}
			case <-done:
				return
			}
		}
	}()

	return func() error {
		close(done)
		return watcher.Close()
	}, nil
}

// build overlays every key viper found in the file onto Defaults().
func build(v *viper.Viper) (*Config, error) {
	cfg := Defaults()

	if v.IsSet("user.minNameLength") {
		cfg.Limits.MinNameLength = v.GetInt("user.minNameLength")
	}
	if v.IsSet("user.maxNameLength") {
		cfg.Limits.MaxNameLength = v.GetInt("user.maxNameLength")
	}
	if v.IsSet("user.minInfoLength") {
		cfg.Limits.MinInfoLength = v.GetInt("user.minInfoLength")
	}
	if v.IsSet("user.maxInfoLength") {
		cfg.Limits.MaxInfoLength = v.GetInt("user.maxInfoLength")
	}
	if v.IsSet("user.minTitleLength") {
		cfg.Limits.MinTitleLength = v.GetInt("user.minTitleLength")
	}
	if v.IsSet("user.maxTitleLength") {
		cfg.Limits.MaxTitleLength = v.GetInt("user.maxTitleLength")
	}
	if v.IsSet("user.minSignatureLength") {
		cfg.Limits.MinSignatureLength = v.GetInt("user.minSignatureLength")
	}
	if v.IsSet("user.maxSignatureLength") {
		cfg.Limits.MaxSignatureLength = v.GetInt("user.maxSignatureLength")
	}
	if v.IsSet("user.lastSeenUpdatePrecision") {
		cfg.Limits.LastSeenUpdatePrecision = v.GetInt64("user.lastSeenUpdatePrecision")
	}
	if v.IsSet("user.maxUsersPerPage") {
		cfg.Limits.MaxUsersPerPage = v.GetInt("user.maxUsersPerPage")
	}
	if v.IsSet("user.onlineUsersIntervalSeconds") {
		cfg.Limits.OnlineUsersIntervalSeconds = v.GetInt64("user.onlineUsersIntervalSeconds")
	}
	if v.IsSet("user.maxLogoBinarySize") {
		cfg.Limits.MaxLogoBinarySize = v.GetInt("user.maxLogoBinarySize")
	}
	if v.IsSet("user.maxLogoWidth") {
		cfg.Limits.MaxLogoWidth = v.GetInt("user.maxLogoWidth")
	}
	if v.IsSet("user.maxLogoHeight") {
		cfg.Limits.MaxLogoHeight = v.GetInt("user.maxLogoHeight")
	}
	if v.IsSet("user.resetVoteExpiresInSeconds") {
		cfg.Limits.ResetVoteExpiresInSeconds = v.GetInt64("user.resetVoteExpiresInSeconds")
	}
	if v.IsSet("user.visitorOnlineForSeconds") {
		cfg.Limits.VisitorOnlineForSeconds = v.GetInt64("user.visitorOnlineForSeconds")
	}

	overlayEntityLimits(v, "discussionThread", &cfg.Limits.ThreadMinNameLength, &cfg.Limits.ThreadMaxNameLength, &cfg.Limits.ThreadsPerPage)
	if v.IsSet("discussionThreadMessage.minContentLength") {
		cfg.Limits.MessageMinContentLength = v.GetInt("discussionThreadMessage.minContentLength")
	}
	if v.IsSet("discussionThreadMessage.maxContentLength") {
		cfg.Limits.MessageMaxContentLength = v.GetInt("discussionThreadMessage.maxContentLength")
	}
	if v.IsSet("discussionThreadMessage.messagesPerPage") {
		cfg.Limits.MessagesPerPage = v.GetInt("discussionThreadMessage.messagesPerPage")
	}
	if v.IsSet("discussionThreadMessageComment.minContentLength") {
		cfg.Limits.CommentMinContentLength = v.GetInt("discussionThreadMessageComment.minContentLength")
	}
	if v.IsSet("discussionThreadMessageComment.maxContentLength") {
		cfg.Limits.CommentMaxContentLength = v.GetInt("discussionThreadMessageComment.maxContentLength")
	}
	if v.IsSet("discussionThreadMessageComment.commentsPerPage") {
		cfg.Limits.CommentsPerPage = v.GetInt("discussionThreadMessageComment.commentsPerPage")
	}
	if v.IsSet("discussionTag.minNameLength") {
		cfg.Limits.TagMinNameLength = v.GetInt("discussionTag.minNameLength")
	}
	if v.IsSet("discussionTag.maxNameLength") {
		cfg.Limits.TagMaxNameLength = v.GetInt("discussionTag.maxNameLength")
	}
	if v.IsSet("discussionTag.maxUIBinarySize") {
		cfg.Limits.TagMaxUIBinarySize = v.GetInt("discussionTag.maxUIBinarySize")
	}
	if v.IsSet("discussionTag.tagsPerPage") {
		cfg.Limits.TagsPerPage = v.GetInt("discussionTag.tagsPerPage")
	}
	if v.IsSet("discussionCategory.minNameLength") {
		cfg.Limits.CategoryMinNameLength = v.GetInt("discussionCategory.minNameLength")
	}
	if v.IsSet("discussionCategory.maxNameLength") {
		cfg.Limits.CategoryMaxNameLength = v.GetInt("discussionCategory.maxNameLength")
	}
	if v.IsSet("discussionCategory.maxDescriptionLength") {
		cfg.Limits.CategoryMaxDescriptionLength = v.GetInt("discussionCategory.maxDescriptionLength")
	}
	if v.IsSet("discussionCategory.categoriesPerPage") {
		cfg.Limits.CategoriesPerPage = v.GetInt("discussionCategory.categoriesPerPage")
	}

	if v.IsSet("service.numberOfIOServiceThreads") {
		cfg.Service.NumberOfIOServiceThreads = v.GetInt("service.numberOfIOServiceThreads")
	}
	if v.IsSet("service.numberOfReadBuffers") {
		cfg.Service.NumberOfReadBuffers = v.GetInt("service.numberOfReadBuffers")
	}
	if v.IsSet("service.numberOfWriteBuffers") {
		cfg.Service.NumberOfWriteBuffers = v.GetInt("service.numberOfWriteBuffers")
	}
	if v.IsSet("service.maxConnections") {
		cfg.Service.MaxConnections = v.GetInt("service.maxConnections")
	}
	if v.IsSet("service.listenIPAddress") {
		cfg.Service.ListenIPAddress = v.GetString("service.listenIPAddress")
	}
	if v.IsSet("service.listenPort") {
		cfg.Service.ListenPort = v.GetInt("service.listenPort")
	}
	if v.IsSet("service.connectionTimeoutSeconds") {
		cfg.Service.ConnectionTimeoutSeconds = v.GetInt64("service.connectionTimeoutSeconds")
	}
	if v.IsSet("service.trustIpFromXForwardedFor") {
		cfg.Service.TrustIPFromXForwardedFor = v.GetBool("service.trustIpFromXForwardedFor")
	}
	if v.IsSet("service.disableCommands") {
		cfg.Service.DisableCommands = v.GetBool("service.disableCommands")
	}
	if v.IsSet("service.disableCommandsForAnonymousUsers") {
		cfg.Service.DisableCommandsForAnonymousUsers = v.GetBool("service.disableCommandsForAnonymousUsers")
	}
	if v.IsSet("service.disableThrottling") {
		cfg.Service.DisableThrottling = v.GetBool("service.disableThrottling")
	}
	if v.IsSet("service.responsePrefix") {
		cfg.Service.ResponsePrefix = v.GetString("service.responsePrefix")
	}
	if v.IsSet("service.expectedOriginReferer") {
		cfg.Service.ExpectedOriginReferer = v.GetString("service.expectedOriginReferer")
	}

	if v.IsSet("persistence.inputFolder") {
		cfg.Persistence.InputFolder = v.GetString("persistence.inputFolder")
	}
	if v.IsSet("persistence.outputFolder") {
		cfg.Persistence.OutputFolder = v.GetString("persistence.outputFolder")
	}
	if v.IsSet("persistence.messagesFile") {
		cfg.Persistence.MessagesFile = v.GetString("persistence.messagesFile")
	}
	if v.IsSet("persistence.validateChecksum") {
		cfg.Persistence.ValidateChecksum = v.GetBool("persistence.validateChecksum")
	}
	if v.IsSet("persistence.createNewOutputFileEverySeconds") {
		cfg.Persistence.CreateNewOutputFileEverySeconds = v.GetInt64("persistence.createNewOutputFileEverySeconds")
	}
	if v.IsSet("persistence.persistIPAddresses") {
		cfg.Persistence.PersistIPAddresses = v.GetBool("persistence.persistIPAddresses")
	}
	if v.IsSet("persistence.fsyncEverySeconds") {
		cfg.Persistence.FsyncEverySeconds = v.GetInt64("persistence.fsyncEverySeconds")
	}

	for name, class := range throttleActionNames {
		key := "throttling." + name
		if !v.IsSet(key + ".maxAllowed") {
			continue
		}
		cfg.Throttle[class] = authz.ThrottleConfig{
			MaxAllowed:    v.GetInt(key + ".maxAllowed"),
			PeriodSeconds: v.GetInt64(key + ".periodSeconds"),
		}
	}

	for name, priv := range privilegeNames {
		key := "defaultPrivileges." + name
		if v.IsSet(key) {
			cfg.DefaultRequiredPrivileges[priv] = v.GetInt(key)
		}
	}

	return &cfg, nil
}

// overlayEntityLimits overlays the (minNameLength, maxNameLength,
// threadsPerPage) keys of section (§6.4); it reads the page size only from
// the threadsPerPage key.
func overlayEntityLimits(v *viper.Viper, section string, minLen, maxLen, perPage *int) {
	if v.IsSet(section + ".minNameLength") {
		*minLen = v.GetInt(section + ".minNameLength")
	}
	if v.IsSet(section + ".maxNameLength") {
		*maxLen = v.GetInt(section + ".maxNameLength")
	}
	if v.IsSet(section + ".threadsPerPage") {
		*perPage = v.GetInt(section + ".threadsPerPage")
	}
}

var throttleActionNames = map[string]authz.ActionClass{
	"newContent":     authz.ActionNewContent,
	"editContent":    authz.ActionEditContent,
	"vote":           authz.ActionVote,
	"subscribe":      authz.ActionSubscribe,
	"editPrivileges": authz.ActionEditPrivileges,
}

var privilegeNames = map[string]entities.Privilege{
	"viewForumRoot":                      entities.PrivViewForumRoot,
	"addUser":                            entities.PrivAddUser,
	"loginUser":                          entities.PrivLoginUser,
	"viewDiscussionThreadMessage":        entities.PrivViewDiscussionThreadMessage,
	"viewDiscussionThreadMessageUser":    entities.PrivViewDiscussionThreadMessageUser,
	"viewDiscussionThreadMessageVotes":   entities.PrivViewDiscussionThreadMessageVotes,
	"viewDiscussionThreadMessageIPAddress": entities.PrivViewDiscussionThreadMessageIPAddress,
	"addNewDiscussionThread":             entities.PrivAddNewDiscussionThread,
	"addNewDiscussionThreadMessage":      entities.PrivAddNewDiscussionThreadMessage,
	"editDiscussionThreadMessageContent": entities.PrivEditDiscussionThreadMessageContent,
	"deleteDiscussionThreadMessage":      entities.PrivDeleteDiscussionThreadMessage,
	"moveDiscussionThreadMessage":        entities.PrivMoveDiscussionThreadMessage,
	"upVote":                             entities.PrivUpVote,
	"downVote":                           entities.PrivDownVote,
	"resetVote":                          entities.PrivResetVote,
	"addComment":                         entities.PrivAddComment,
	"setCommentToSolved":                 entities.PrivSetCommentToSolved,
	"subscribeToThread":                  entities.PrivSubscribeToThread,
	"unsubscribeFromThread":              entities.PrivUnsubscribeFromThread,
	"mergeDiscussionThreads":             entities.PrivMergeDiscussionThreads,
	"adjustPrivilege":                    entities.PrivAdjustPrivilege,
	"noThrottling":                       entities.PrivNoThrottling,
}
